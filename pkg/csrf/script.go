package csrf

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// assignment is a string constant bound to a name somewhere in a script.
type assignment struct {
	name  string
	value string
}

// scriptAssignments parses src and collects every string literal assigned
// to a variable, a member or an object key, in source order.
func scriptAssignments(src string) ([]assignment, error) {
	program, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return nil, err
	}
	var out []assignment
	collect(program, &out)
	return out, nil
}

func stringValue(e ast.Expression) (string, bool) {
	lit, ok := e.(*ast.StringLiteral)
	if !ok {
		return "", false
	}
	return string(lit.Value), true
}

func targetName(e ast.Node) (string, bool) {
	switch t := e.(type) {
	case *ast.Identifier:
		return string(t.Name), true
	case *ast.DotExpression:
		return string(t.Identifier.Name), true
	case *ast.BracketExpression:
		return stringValue(t.Member)
	case *ast.StringLiteral:
		return string(t.Value), true
	}
	return "", false
}

func collect(node ast.Node, out *[]assignment) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *ast.Program:
		for _, stmt := range n.Body {
			collect(stmt, out)
		}
	case *ast.BlockStatement:
		for _, stmt := range n.List {
			collect(stmt, out)
		}
	case *ast.ExpressionStatement:
		collect(n.Expression, out)
	case *ast.VariableStatement:
		for _, b := range n.List {
			collect(b, out)
		}
	case *ast.LexicalDeclaration:
		for _, b := range n.List {
			collect(b, out)
		}
	case *ast.Binding:
		if name, ok := targetName(n.Target); ok {
			if v, ok := stringValue(n.Initializer); ok {
				*out = append(*out, assignment{name: name, value: v})
			}
		}
		if n.Initializer != nil {
			collect(n.Initializer, out)
		}
	case *ast.AssignExpression:
		if name, ok := targetName(n.Left); ok {
			if v, ok := stringValue(n.Right); ok {
				*out = append(*out, assignment{name: name, value: v})
			}
		}
		collect(n.Right, out)
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			keyed, ok := prop.(*ast.PropertyKeyed)
			if !ok {
				continue
			}
			if name, ok := targetName(keyed.Key); ok {
				if v, ok := stringValue(keyed.Value); ok {
					*out = append(*out, assignment{name: name, value: v})
				}
			}
			collect(keyed.Value, out)
		}
	case *ast.CallExpression:
		collect(n.Callee, out)
		for _, arg := range n.ArgumentList {
			collect(arg, out)
		}
	case *ast.NewExpression:
		for _, arg := range n.ArgumentList {
			collect(arg, out)
		}
	case *ast.FunctionLiteral:
		if n.Body != nil {
			collect(n.Body, out)
		}
	case *ast.ArrowFunctionLiteral:
		collect(n.Body, out)
	case *ast.ExpressionBody:
		collect(n.Expression, out)
	case *ast.FunctionDeclaration:
		if n.Function != nil && n.Function.Body != nil {
			collect(n.Function.Body, out)
		}
	case *ast.IfStatement:
		collect(n.Consequent, out)
		collect(n.Alternate, out)
	case *ast.ReturnStatement:
		collect(n.Argument, out)
	case *ast.SequenceExpression:
		for _, e := range n.Sequence {
			collect(e, out)
		}
	case *ast.DotExpression:
		collect(n.Left, out)
	}
}
