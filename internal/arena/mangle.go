package arena

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ilverify/internal/ir"
)

// Mangle renders a type in its canonical display form, e.g. "*i32",
// "fn(i32,&u8)->void" or "valuetype(Point)". ParseType is its inverse.
func (a *Arena) Mangle(id ir.TypeID) string {
	var sb strings.Builder
	a.mangle(&sb, a.Type(id))
	return sb.String()
}

// MangleType is Mangle for a resolved type.
func (a *Arena) MangleType(t ir.Type) string {
	var sb strings.Builder
	a.mangle(&sb, t)
	return sb.String()
}

func (a *Arena) mangle(sb *strings.Builder, t ir.Type) {
	switch t := t.(type) {
	case ir.Void:
		sb.WriteString("void")
	case ir.Bool:
		sb.WriteString("bool")
	case ir.Int:
		sb.WriteString(t.Name())
	case ir.Float:
		sb.WriteString(t.Name())
	case ir.Ptr:
		sb.WriteByte('*')
		a.mangle(sb, a.Type(t.Elem))
	case ir.Ref:
		sb.WriteByte('&')
		a.mangle(sb, a.Type(t.Elem))
	case ir.FnPtr:
		sig := a.Sig(t.Sig)
		sb.WriteString("fn(")
		for i, in := range sig.Inputs {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.mangle(sb, a.Type(in))
		}
		sb.WriteString(")->")
		a.mangle(sb, a.Type(sig.Output))
	case ir.ClassType:
		c := a.ClassRef(t.Class)
		if c.ValueType {
			sb.WriteString("valuetype(")
		} else {
			sb.WriteString("class(")
		}
		if c.Assembly != "" {
			sb.WriteByte('[')
			sb.WriteString(c.Assembly)
			sb.WriteByte(']')
		}
		sb.WriteString(c.Name)
		sb.WriteByte(')')
	case ir.PlatformArray:
		sb.WriteString("arr(")
		a.mangle(sb, a.Type(t.Elem))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(int(t.Dims)))
		sb.WriteByte(')')
	case ir.PlatformObject:
		sb.WriteString("object")
	case ir.PlatformString:
		sb.WriteString("string")
	case ir.PlatformGeneric:
		sb.WriteByte('!')
		if t.Kind == ir.GenericMethod {
			sb.WriteByte('!')
		}
		sb.WriteString(strconv.FormatUint(uint64(t.Index), 10))
	default:
		panic(fmt.Sprintf("arena: mangle: unknown type %T", t))
	}
}

var keywordTypes = map[string]ir.Type{
	"void":   ir.Void{},
	"bool":   ir.Bool{},
	"f32":    ir.F32,
	"f64":    ir.F64,
	"object": ir.PlatformObject{},
	"string": ir.PlatformString{},
}

func init() {
	for _, i := range ir.Ints {
		keywordTypes[i.Name()] = i
	}
}

// ParseError reports a malformed type string.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("type %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// ParseType parses the mangled form of a type and interns it, together
// with any element types, signatures and class references it names.
func (a *Arena) ParseType(s string) (ir.TypeID, error) {
	p := &typeParser{a: a, src: s}
	id, err := p.parse()
	if err != nil {
		return 0, err
	}
	if p.pos != len(s) {
		return 0, p.fail("trailing input")
	}
	return id, nil
}

type typeParser struct {
	a   *Arena
	src string
	pos int
}

func (p *typeParser) fail(reason string) error {
	return &ParseError{Input: p.src, Offset: p.pos, Reason: reason}
}

func (p *typeParser) eat(tok string) bool {
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.eat(tok) {
		return p.fail(fmt.Sprintf("expected %q", tok))
	}
	return nil
}

func (p *typeParser) number() (uint64, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.fail("expected number")
	}
	n, err := strconv.ParseUint(p.src[start:p.pos], 10, 32)
	if err != nil {
		p.pos = start
		return 0, p.fail("number out of range")
	}
	return n, nil
}

func (p *typeParser) parse() (ir.TypeID, error) {
	switch {
	case p.eat("*"):
		elem, err := p.parse()
		if err != nil {
			return 0, err
		}
		return p.a.PtrTo(elem), nil
	case p.eat("&"):
		elem, err := p.parse()
		if err != nil {
			return 0, err
		}
		return p.a.RefTo(elem), nil
	case p.eat("fn("):
		return p.fnPtr()
	case p.eat("class("):
		return p.class(false)
	case p.eat("valuetype("):
		return p.class(true)
	case p.eat("arr("):
		return p.array()
	case p.eat("!!"):
		n, err := p.number()
		if err != nil {
			return 0, err
		}
		return p.a.InternType(ir.PlatformGeneric{Index: uint32(n), Kind: ir.GenericMethod}), nil
	case p.eat("!"):
		n, err := p.number()
		if err != nil {
			return 0, err
		}
		return p.a.InternType(ir.PlatformGeneric{Index: uint32(n), Kind: ir.GenericType}), nil
	}

	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	t, ok := keywordTypes[word]
	if !ok {
		p.pos = start
		if word == "" {
			return 0, p.fail("expected type")
		}
		return 0, p.fail(fmt.Sprintf("unknown type %q", word))
	}
	return p.a.InternType(t), nil
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func (p *typeParser) fnPtr() (ir.TypeID, error) {
	var inputs []ir.TypeID
	if !p.eat(")") {
		for {
			in, err := p.parse()
			if err != nil {
				return 0, err
			}
			inputs = append(inputs, in)
			if p.eat(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return 0, err
			}
		}
	}
	if err := p.expect("->"); err != nil {
		return 0, err
	}
	out, err := p.parse()
	if err != nil {
		return 0, err
	}
	sig := p.a.InternSig(ir.Signature{Inputs: inputs, Output: out})
	return p.a.InternType(ir.FnPtr{Sig: sig}), nil
}

func (p *typeParser) class(valueType bool) (ir.TypeID, error) {
	var asm string
	if p.eat("[") {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return 0, p.fail("unterminated assembly")
		}
		asm = p.src[p.pos : p.pos+end]
		p.pos += end + 1
	}
	end := strings.IndexByte(p.src[p.pos:], ')')
	if end <= 0 {
		return 0, p.fail("expected class name")
	}
	name := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	c := p.a.InternClassRef(ir.ClassRef{Name: name, Assembly: asm, ValueType: valueType})
	return p.a.InternType(ir.ClassType{Class: c}), nil
}

func (p *typeParser) array() (ir.TypeID, error) {
	elem, err := p.parse()
	if err != nil {
		return 0, err
	}
	if err := p.expect(","); err != nil {
		return 0, err
	}
	dims, err := p.number()
	if err != nil {
		return 0, err
	}
	if dims == 0 || dims > 255 {
		return 0, p.fail("array dimensions out of range")
	}
	if err := p.expect(")"); err != nil {
		return 0, err
	}
	return p.a.InternType(ir.PlatformArray{Elem: elem, Dims: uint8(dims)}), nil
}
