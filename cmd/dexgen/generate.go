package main

import (
	"fmt"

	"github.com/chazu/dexgen/pkg/dex"
	"github.com/chazu/dexgen/pkg/dexfile"
)

// MethodResult records one generated method for reporting and listings.
type MethodResult struct {
	Class     string
	Name      string
	Shorty    string
	Registers int
	Outs      int
	CodeUnits int
	Listing   string
}

// BuildResult is everything one Generate run produces.
type BuildResult struct {
	Image   []byte
	Methods []MethodResult
}

// Generate builds the configured classes into a dex image. Listings are
// disassembled before final assembly, so their pool references show the
// builder's first-sight ids rather than on-disk indices.
func Generate(cfg *Config, withListings bool) (*BuildResult, error) {
	d := dex.NewDexBuilder()
	result := &BuildResult{}

	for _, cc := range cfg.Classes {
		cls := d.MakeClass(cc.Name)
		if cc.SourceFile != "" {
			cls.SetSourceFile(cc.SourceFile)
		}
		for _, mc := range cc.Methods {
			em, err := generateMethod(cls, mc)
			if err != nil {
				return nil, fmt.Errorf("class %s: method %s: %w", cc.Name, mc.Name, err)
			}
			mr := MethodResult{
				Class:     cc.Name,
				Name:      mc.Name,
				Shorty:    em.Decl.Prototype.Shorty.Value,
				Registers: em.Code.Registers,
				Outs:      em.Code.OutsCount,
				CodeUnits: len(em.Code.Instructions),
			}
			if withListings {
				listing, err := dexfile.Disassemble(em.Code.Instructions)
				if err != nil {
					return nil, fmt.Errorf("class %s: method %s: %w", cc.Name, mc.Name, err)
				}
				mr.Listing = listing
			}
			result.Methods = append(result.Methods, mr)
		}
	}

	image, err := d.CreateImage()
	if err != nil {
		return nil, err
	}
	result.Image = image
	return result, nil
}

func generateMethod(cls *dex.ClassBuilder, mc MethodConfig) (*dexfile.EncodedMethod, error) {
	ret, err := typeFromName(mc.Returns)
	if err != nil {
		return nil, err
	}
	params := make([]dex.TypeDescriptor, 0, len(mc.Params))
	for _, p := range mc.Params {
		t, err := typeFromName(p)
		if err != nil {
			return nil, err
		}
		params = append(params, t)
	}
	m := cls.CreateMethod(mc.Name, dex.NewPrototype(ret, params...))

	switch mc.Body {
	case "return-void":
		m.BuildReturn()
	case "return-int":
		r := m.MakeRegister()
		m.BuildConst4(r, mc.Value)
		m.BuildReturnValue(r)
	case "return-string":
		r := m.MakeRegister()
		m.BuildConstString(r, mc.Text)
		m.BuildReturnObject(r)
	case "return-new":
		if !ret.IsObject() {
			return nil, fmt.Errorf("return-new needs an object return type, have %s", ret)
		}
		r := m.MakeRegister()
		m.BuildNew(r, ret, dex.NewPrototype(dex.VoidType()))
		m.BuildReturnObject(r)
	default:
		return nil, fmt.Errorf("unknown body kind %q", mc.Body)
	}
	return m.Encode()
}
