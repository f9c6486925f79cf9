package analyzer

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

func selectors(sel, unsel string) (include, exclude *regexp.Regexp, err error) {
	if sel != "" {
		if include, err = regexp.Compile(sel); err != nil {
			return nil, nil, errors.Wrap(err, "invalid -select")
		}
	}
	if unsel != "" {
		if exclude, err = regexp.Compile(unsel); err != nil {
			return nil, nil, errors.Wrap(err, "invalid -unselect")
		}
	}
	return include, exclude, nil
}
