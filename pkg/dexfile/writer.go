package dexfile

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"sort"
	"strings"
)

const (
	headerSize     = 0x70
	endianConstant = 0x12345678
)

// Magic bytes for dex035 files: "dex\n035\0"
var dexMagic = [8]byte{'d', 'e', 'x', '\n', '0', '3', '5', 0}

// Map list item type codes.
const (
	mapHeaderItem     = 0x0000
	mapStringIDItem   = 0x0001
	mapTypeIDItem     = 0x0002
	mapProtoIDItem    = 0x0003
	mapMethodIDItem   = 0x0005
	mapClassDefItem   = 0x0006
	mapMapList        = 0x1000
	mapTypeList       = 0x1001
	mapClassDataItem  = 0x2000
	mapCodeItem       = 0x2001
	mapStringDataItem = 0x2002
)

type mapEntry struct {
	kind   uint16
	size   uint32
	offset uint32
}

func align4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// protoSortKey orders prototypes the way proto_ids must appear on disk:
// by return type descriptor, then by parameter descriptors.
func protoSortKey(p *Proto) string {
	var sb strings.Builder
	sb.WriteString(p.ReturnType.Descriptor.Value)
	for _, t := range p.ParamTypes {
		sb.WriteByte(0)
		sb.WriteString(t.Descriptor.Value)
	}
	return sb.String()
}

// CreateImage produces the complete in-memory dex035 image: id tables in
// their required on-disk order, data section laid out and offset-linked,
// pool ids inside code items rewritten to final indices, and the header
// checksum and signature filled in. It may be called at most once per
// DexFile; every method body must already be encoded.
func (f *DexFile) CreateImage() ([]byte, error) {
	if f.written {
		return nil, ErrImageWritten
	}
	f.written = true

	// Sort the id tables and build first-sight id -> final index remaps.
	strs := append([]*String(nil), f.Strings...)
	sort.Slice(strs, func(i, j int) bool { return strs[i].Value < strs[j].Value })
	stringMap := make([]int, len(f.Strings))
	for i, s := range strs {
		stringMap[s.Index] = i
	}

	types := append([]*Type(nil), f.Types...)
	sort.Slice(types, func(i, j int) bool {
		return types[i].Descriptor.Value < types[j].Descriptor.Value
	})
	typeMap := make([]int, len(f.Types))
	for i, t := range types {
		typeMap[t.Index] = i
	}

	protos := append([]*Proto(nil), f.Protos...)
	sort.Slice(protos, func(i, j int) bool {
		return protoSortKey(protos[i]) < protoSortKey(protos[j])
	})
	protoMap := make([]int, len(f.Protos))
	for i, p := range protos {
		protoMap[p.Index] = i
	}

	methods := append([]*MethodDecl(nil), f.MethodDecls...)
	sort.Slice(methods, func(i, j int) bool {
		a, b := methods[i], methods[j]
		if a.Class.Descriptor.Value != b.Class.Descriptor.Value {
			return a.Class.Descriptor.Value < b.Class.Descriptor.Value
		}
		if a.Name.Value != b.Name.Value {
			return a.Name.Value < b.Name.Value
		}
		return protoSortKey(a.Prototype) < protoSortKey(b.Prototype)
	})
	methodMap := make([]int, len(f.MethodDecls))
	for i, m := range methods {
		methodMap[m.Index] = i
	}

	// Id table indices referenced from u2 fields must fit.
	if len(types) > 0x10000 || len(protos) > 0x10000 {
		return nil, fmt.Errorf("%w: %d types, %d protos", ErrIndexOverflow, len(types), len(protos))
	}

	// Fixed section layout. Empty sections report offset 0 in the header
	// but do not disturb the positions of the sections after them.
	stringIDsOff := headerSize
	typeIDsOff := stringIDsOff + 4*len(strs)
	protoIDsOff := typeIDsOff + 4*len(types)
	methodIDsOff := protoIDsOff + 12*len(protos)
	classDefsOff := methodIDsOff + 8*len(methods)
	dataOff := classDefsOff + 32*len(f.Classes)

	var data []byte
	abs := func() int { return dataOff + len(data) }

	// String data items.
	stringDataOffs := make([]int, len(strs))
	firstStringData := 0
	for i, s := range strs {
		if i == 0 {
			firstStringData = abs()
		}
		stringDataOffs[i] = abs()
		data = appendULEB128(data, uint32(utf16Length(s.Value)))
		data = appendMUTF8(data, s.Value)
		data = append(data, 0)
	}

	// Parameter type lists, deduplicated across prototypes.
	typeListOffs := make(map[string]int)
	typeListCount := 0
	firstTypeList := 0
	for _, p := range protos {
		if len(p.ParamTypes) == 0 {
			continue
		}
		key := protoSortKey(p)
		if _, ok := typeListOffs[key]; ok {
			continue
		}
		data = align4(data)
		if typeListCount == 0 {
			firstTypeList = abs()
		}
		typeListOffs[key] = abs()
		data = binary.LittleEndian.AppendUint32(data, uint32(len(p.ParamTypes)))
		for _, t := range p.ParamTypes {
			data = binary.LittleEndian.AppendUint16(data, uint16(typeMap[t.Index]))
		}
		typeListCount++
	}

	// Code items. Pool ids inside the code units are rewritten to the
	// final sorted indices here.
	codeOffs := make(map[*Code]int)
	codeCount := 0
	firstCode := 0
	for _, c := range f.Classes {
		for _, em := range append(append([]*EncodedMethod(nil), c.DirectMethods...), c.VirtualMethods...) {
			if em.Code == nil {
				continue
			}
			name := em.Decl.Class.Descriptor.Value + "." + em.Decl.Name.Value
			if err := remapCode(em.Code.Instructions, stringMap, typeMap, methodMap); err != nil {
				return nil, fmt.Errorf("method %s: %w", name, err)
			}
			data = align4(data)
			if codeCount == 0 {
				firstCode = abs()
			}
			codeOffs[em.Code] = abs()
			data = binary.LittleEndian.AppendUint16(data, uint16(em.Code.Registers))
			data = binary.LittleEndian.AppendUint16(data, uint16(em.Code.InsCount))
			data = binary.LittleEndian.AppendUint16(data, uint16(em.Code.OutsCount))
			data = binary.LittleEndian.AppendUint16(data, 0) // tries_size
			data = binary.LittleEndian.AppendUint32(data, 0) // debug_info_off
			data = binary.LittleEndian.AppendUint32(data, uint32(len(em.Code.Instructions)))
			for _, u := range em.Code.Instructions {
				data = binary.LittleEndian.AppendUint16(data, u)
			}
			codeCount++
		}
	}

	// Class data items.
	classDataOffs := make(map[*Class]int)
	classDataCount := 0
	firstClassData := 0
	for _, c := range f.Classes {
		if len(c.DirectMethods)+len(c.VirtualMethods) == 0 {
			continue
		}
		if classDataCount == 0 {
			firstClassData = abs()
		}
		classDataOffs[c] = abs()
		data = appendULEB128(data, 0) // static fields
		data = appendULEB128(data, 0) // instance fields
		data = appendULEB128(data, uint32(len(c.DirectMethods)))
		data = appendULEB128(data, uint32(len(c.VirtualMethods)))
		data = appendEncodedMethods(data, c.DirectMethods, methodMap, codeOffs)
		data = appendEncodedMethods(data, c.VirtualMethods, methodMap, codeOffs)
		classDataCount++
	}

	// Map list, entries in ascending offset order.
	data = align4(data)
	mapOff := abs()
	entries := []mapEntry{{mapHeaderItem, 1, 0}}
	addEntry := func(kind uint16, size, offset int) {
		if size > 0 {
			entries = append(entries, mapEntry{kind, uint32(size), uint32(offset)})
		}
	}
	addEntry(mapStringIDItem, len(strs), stringIDsOff)
	addEntry(mapTypeIDItem, len(types), typeIDsOff)
	addEntry(mapProtoIDItem, len(protos), protoIDsOff)
	addEntry(mapMethodIDItem, len(methods), methodIDsOff)
	addEntry(mapClassDefItem, len(f.Classes), classDefsOff)
	addEntry(mapStringDataItem, len(strs), firstStringData)
	addEntry(mapTypeList, typeListCount, firstTypeList)
	addEntry(mapCodeItem, codeCount, firstCode)
	addEntry(mapClassDataItem, classDataCount, firstClassData)
	addEntry(mapMapList, 1, mapOff)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(entries)))
	for _, e := range entries {
		data = binary.LittleEndian.AppendUint16(data, e.kind)
		data = binary.LittleEndian.AppendUint16(data, 0)
		data = binary.LittleEndian.AppendUint32(data, e.size)
		data = binary.LittleEndian.AppendUint32(data, e.offset)
	}

	// Assemble the file: header, id tables, class defs, data.
	fileSize := dataOff + len(data)
	out := make([]byte, 0, fileSize)
	out = append(out, dexMagic[:]...)
	out = binary.LittleEndian.AppendUint32(out, 0) // checksum, patched below
	out = append(out, make([]byte, 20)...)         // signature, patched below
	out = binary.LittleEndian.AppendUint32(out, uint32(fileSize))
	out = binary.LittleEndian.AppendUint32(out, headerSize)
	out = binary.LittleEndian.AppendUint32(out, endianConstant)
	out = binary.LittleEndian.AppendUint32(out, 0) // link_size
	out = binary.LittleEndian.AppendUint32(out, 0) // link_off
	out = binary.LittleEndian.AppendUint32(out, uint32(mapOff))
	out = appendSection(out, len(strs), stringIDsOff)
	out = appendSection(out, len(types), typeIDsOff)
	out = appendSection(out, len(protos), protoIDsOff)
	out = appendSection(out, 0, 0) // field_ids
	out = appendSection(out, len(methods), methodIDsOff)
	out = appendSection(out, len(f.Classes), classDefsOff)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = binary.LittleEndian.AppendUint32(out, uint32(dataOff))

	for i := range strs {
		out = binary.LittleEndian.AppendUint32(out, uint32(stringDataOffs[i]))
	}
	for _, t := range types {
		out = binary.LittleEndian.AppendUint32(out, uint32(stringMap[t.Descriptor.Index]))
	}
	for _, p := range protos {
		out = binary.LittleEndian.AppendUint32(out, uint32(stringMap[p.Shorty.Index]))
		out = binary.LittleEndian.AppendUint32(out, uint32(typeMap[p.ReturnType.Index]))
		paramsOff := 0
		if len(p.ParamTypes) > 0 {
			paramsOff = typeListOffs[protoSortKey(p)]
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(paramsOff))
	}
	for _, m := range methods {
		out = binary.LittleEndian.AppendUint16(out, uint16(typeMap[m.Class.Index]))
		out = binary.LittleEndian.AppendUint16(out, uint16(protoMap[m.Prototype.Index]))
		out = binary.LittleEndian.AppendUint32(out, uint32(stringMap[m.Name.Index]))
	}
	for _, c := range f.Classes {
		out = binary.LittleEndian.AppendUint32(out, uint32(typeMap[c.Type.Index]))
		out = binary.LittleEndian.AppendUint32(out, c.Access)
		if c.SuperClass != nil {
			out = binary.LittleEndian.AppendUint32(out, uint32(typeMap[c.SuperClass.Index]))
		} else {
			out = binary.LittleEndian.AppendUint32(out, NoIndex)
		}
		out = binary.LittleEndian.AppendUint32(out, 0) // interfaces_off
		if c.SourceFile != nil {
			out = binary.LittleEndian.AppendUint32(out, uint32(stringMap[c.SourceFile.Index]))
		} else {
			out = binary.LittleEndian.AppendUint32(out, NoIndex)
		}
		out = binary.LittleEndian.AppendUint32(out, 0) // annotations_off
		out = binary.LittleEndian.AppendUint32(out, uint32(classDataOffs[c]))
		out = binary.LittleEndian.AppendUint32(out, 0) // static_values_off
	}
	out = append(out, data...)

	sig := sha1.Sum(out[32:])
	copy(out[12:32], sig[:])
	binary.LittleEndian.PutUint32(out[8:12], adler32.Checksum(out[12:]))
	return out, nil
}

// appendSection writes a header size/offset pair, reporting offset 0 for
// an empty section as the format requires.
func appendSection(out []byte, size, offset int) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(size))
	if size == 0 {
		offset = 0
	}
	return binary.LittleEndian.AppendUint32(out, uint32(offset))
}

// appendEncodedMethods writes one encoded_method run of a class_data_item:
// methods sorted by final method index, first index absolute, the rest as
// deltas.
func appendEncodedMethods(data []byte, ems []*EncodedMethod, methodMap []int, codeOffs map[*Code]int) []byte {
	sorted := append([]*EncodedMethod(nil), ems...)
	sort.Slice(sorted, func(i, j int) bool {
		return methodMap[sorted[i].Decl.Index] < methodMap[sorted[j].Decl.Index]
	})
	prev := 0
	for i, em := range sorted {
		idx := methodMap[em.Decl.Index]
		diff := idx - prev
		if i == 0 {
			diff = idx
		}
		prev = idx
		data = appendULEB128(data, uint32(diff))
		data = appendULEB128(data, em.Access)
		if em.Code != nil {
			data = appendULEB128(data, uint32(codeOffs[em.Code]))
		} else {
			data = appendULEB128(data, 0)
		}
	}
	return data
}
