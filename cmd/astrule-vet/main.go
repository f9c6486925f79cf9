// Command astrule-vet runs the astrule analyzer standalone or as a go vet
// tool:
//
//	astrule-vet -spec rules.yaml ./...
//	go vet -vettool=$(which astrule-vet) -astrule.spec=rules.yaml ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gnolang/astrule/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
