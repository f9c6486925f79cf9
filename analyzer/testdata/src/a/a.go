package a

func Exported() {} // want `Exported: FuncDecl \(name=Ident\(Exported\)\)`

func helper(x int) int {
	if x > 0 {
		panic("positive") // want `PanicCall: CallExpr \(args=\[BasicLit\("positive"\)\]\)`
	}
	panic(x) //nolint:PanicCall
}

func Run() { // want `Exported: FuncDecl \(name=Ident\(Run\)\)`
	helper(1)
}
