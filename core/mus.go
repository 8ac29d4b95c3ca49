package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types persisted by the storage
// layer. Timestamps are stored as Unix microseconds; float32 vector
// elements as their IEEE 754 bit patterns.

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// DocumentMUS serializes Document values.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(doc Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.Title, bs[n:])
	n += ord.String.Marshal(doc.URL, bs[n:])
	n += ord.String.Marshal(doc.Contents, bs[n:])
	n += marshalVector(doc.Vector, bs[n:])
	n += marshalTime(doc.InsertedAt, bs[n:])
	n += marshalTime(doc.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (doc Document, n int, err error) {
	var n1 int
	doc.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	doc.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.Contents, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(doc Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.Title)
	size += ord.String.Size(doc.URL)
	size += ord.String.Size(doc.Contents)
	size += sizeVector(doc.Vector)
	size += sizeTime(doc.InsertedAt)
	size += sizeTime(doc.UpdatedAt)
	return size
}

// QueryRecordMUS serializes QueryRecord values.
var QueryRecordMUS = queryRecordMUS{}

type queryRecordMUS struct{}

func (queryRecordMUS) Marshal(record QueryRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(record.Id, bs)
	n += ord.String.Marshal(record.CorrelationID, bs[n:])
	n += ord.String.Marshal(record.Query, bs[n:])
	n += marshalTime(record.ReceivedAt, bs[n:])
	return n
}

func (queryRecordMUS) Unmarshal(bs []byte) (record QueryRecord, n int, err error) {
	var n1 int
	record.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	record.CorrelationID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	record.Query, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	record.ReceivedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (queryRecordMUS) Size(record QueryRecord) (size int) {
	size = IDMUS.Size(record.Id)
	size += ord.String.Size(record.CorrelationID)
	size += ord.String.Size(record.Query)
	size += sizeTime(record.ReceivedAt)
	return size
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		var bits uint32
		bits, n1, err = varint.Uint32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
