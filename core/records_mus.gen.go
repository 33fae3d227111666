// Code generated by musgen-go. DO NOT EDIT.

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ = ord.NewSliceSer[float32](varint.Float32)
	slicekfSLcWkjKBXOTXVdxk1pRwΞΞ = ord.NewSliceSer[ConceptRef](ConceptRefMUS)
)

var IDMUS = iDMUS{}

type iDMUS struct{}

func (s iDMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s iDMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(tmp)
	return
}

func (s iDMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s iDMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var HashMUS = hashMUS{}

type hashMUS struct{}

func (s hashMUS) Marshal(v Hash, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s hashMUS) Unmarshal(bs []byte) (v Hash, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = Hash(tmp)
	return
}

func (s hashMUS) Size(v Hash) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s hashMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var ConceptTypeMUS = conceptTypeMUS{}

type conceptTypeMUS struct{}

func (s conceptTypeMUS) Marshal(v ConceptType, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s conceptTypeMUS) Unmarshal(bs []byte) (v ConceptType, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ConceptType(tmp)
	return
}

func (s conceptTypeMUS) Size(v ConceptType) (size int) {
	return ord.String.Size(string(v))
}

func (s conceptTypeMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

var FormulaMUS = formulaMUS{}

type formulaMUS struct{}

func (s formulaMUS) Marshal(v Formula, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.DocId, bs[n:])
	n += ord.String.Marshal(v.Latex, bs[n:])
	n += ord.String.Marshal(v.LatexNorm, bs[n:])
	n += ord.String.Marshal(v.MathMLSkel, bs[n:])
	n += HashMUS.Marshal(v.LatexHash, bs[n:])
	n += HashMUS.Marshal(v.SkelHash, bs[n:])
	n += varint.Int.Marshal(v.PathCount, bs[n:])
	n += slicekfSLcWkjKBXOTXVdxk1pRwΞΞ.Marshal(v.Concepts, bs[n:])
	n += sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Marshal(v.Vector, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.InsertedAt, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
}

func (s formulaMUS) Unmarshal(bs []byte) (v Formula, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.DocId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Latex, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LatexNorm, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.MathMLSkel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LatexHash, n1, err = HashMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SkelHash, n1, err = HashMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.PathCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Concepts, n1, err = slicekfSLcWkjKBXOTXVdxk1pRwΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s formulaMUS) Size(v Formula) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.DocId)
	size += ord.String.Size(v.Latex)
	size += ord.String.Size(v.LatexNorm)
	size += ord.String.Size(v.MathMLSkel)
	size += HashMUS.Size(v.LatexHash)
	size += HashMUS.Size(v.SkelHash)
	size += varint.Int.Size(v.PathCount)
	size += slicekfSLcWkjKBXOTXVdxk1pRwΞΞ.Size(v.Concepts)
	size += sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Size(v.Vector)
	size += raw.TimeUnixMicro.Size(v.InsertedAt)
	return size + raw.TimeUnixMicro.Size(v.UpdatedAt)
}

func (s formulaMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = HashMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = HashMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = slicekfSLcWkjKBXOTXVdxk1pRwΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	return
}

var ConceptMUS = conceptMUS{}

type conceptMUS struct{}

func (s conceptMUS) Marshal(v Concept, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ConceptTypeMUS.Marshal(v.Type, bs[n:])
	n += sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Marshal(v.Vector, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.InsertedAt, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
}

func (s conceptMUS) Unmarshal(bs []byte) (v Concept, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Type, n1, err = ConceptTypeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s conceptMUS) Size(v Concept) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += ConceptTypeMUS.Size(v.Type)
	size += sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Size(v.Vector)
	size += raw.TimeUnixMicro.Size(v.InsertedAt)
	return size + raw.TimeUnixMicro.Size(v.UpdatedAt)
}

func (s conceptMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ConceptTypeMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = sliceGΣwhYDCTrKcVGSdVaYAU2gΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	return
}

var ConceptRefMUS = conceptRefMUS{}

type conceptRefMUS struct{}

func (s conceptRefMUS) Marshal(v ConceptRef, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ConceptId, bs)
	return n + varint.Float32.Marshal(v.Weight, bs[n:])
}

func (s conceptRefMUS) Unmarshal(bs []byte) (v ConceptRef, n int, err error) {
	v.ConceptId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Weight, n1, err = varint.Float32.Unmarshal(bs[n:])
	n += n1
	return
}

func (s conceptRefMUS) Size(v ConceptRef) (size int) {
	size = IDMUS.Size(v.ConceptId)
	return size + varint.Float32.Size(v.Weight)
}

func (s conceptRefMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Float32.Skip(bs[n:])
	n += n1
	return
}

var PostingMUS = postingMUS{}

type postingMUS struct{}

func (s postingMUS) Marshal(v Posting, bs []byte) (n int) {
	n = IDMUS.Marshal(v.FormulaId, bs)
	return n + varint.Int.Marshal(v.TF, bs[n:])
}

func (s postingMUS) Unmarshal(bs []byte) (v Posting, n int, err error) {
	v.FormulaId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.TF, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s postingMUS) Size(v Posting) (size int) {
	size = IDMUS.Size(v.FormulaId)
	return size + varint.Int.Size(v.TF)
}

func (s postingMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

var CheckpointMUS = checkpointMUS{}

type checkpointMUS struct{}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.ProcessorType, bs)
	n += IDMUS.Marshal(v.LastId, bs[n:])
	return n + raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	v.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.LastId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.ProcessorType)
	size += IDMUS.Size(v.LastId)
	return size + raw.TimeUnixMicro.Size(v.UpdatedAt)
}

func (s checkpointMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = IDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicro.Skip(bs[n:])
	n += n1
	return
}
