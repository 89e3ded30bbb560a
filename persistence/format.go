package persistence

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	vecdb "github.com/vecdbgo/vecdb"
)

// metadataVersion is the only version this package writes or accepts for
// metadata.json and the per-collection .meta file.
const metadataVersion = 1

// vectorsVersion is the only version this package writes or accepts for a
// collection's .vectors file.
const vectorsVersion uint32 = 1

// rootMetadata is the JSON shape of <root>/metadata.json.
type rootMetadata struct {
	Version     int      `json:"version"`
	Collections []string `json:"collections"`
}

// collectionMeta is the JSON shape of <root>/collections/<name>.meta.
type collectionMeta struct {
	Version        int    `json:"version"`
	Name           string `json:"name"`
	Dimension      int    `json:"dimension"`
	Metric         string `json:"metric"`
	Count          int    `json:"count"`
	NextInternalID int64  `json:"next_internal_id"`
	M              int    `json:"m"`
	EfConstruction int    `json:"ef_construction"`
	EfSearch       int    `json:"ef_search"`
}

func decodeCollectionMeta(r io.Reader) (collectionMeta, error) {
	var m collectionMeta
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return collectionMeta{}, vecdb.Deserialization("persistence: corrupt .meta file", err)
	}
	if m.Version != metadataVersion {
		return collectionMeta{}, vecdb.Deserialization(fmt.Sprintf("persistence: unsupported .meta version %d", m.Version), nil)
	}
	return m, nil
}

func decodeRootMetadata(r io.Reader) (rootMetadata, error) {
	var m rootMetadata
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return rootMetadata{}, vecdb.Deserialization("persistence: corrupt metadata.json", err)
	}
	if m.Version != metadataVersion {
		return rootMetadata{}, vecdb.Deserialization(fmt.Sprintf("persistence: unsupported metadata.json version %d", m.Version), nil)
	}
	return m, nil
}

// vectorRecord is one (user id, internal id, vector) triple as stored in a
// .vectors file.
type vectorRecord struct {
	UserID     uint64
	InternalID int64
	Vector     []float32
}

// encodeVectors writes the packed binary .vectors format: header
// {u32 version, u64 count, u32 dim} then count records of
// {u64 user_id, u64 internal_id, dim*f32 vector}.
func encodeVectors(w io.Writer, dim int, records []vectorRecord) error {
	if err := binary.Write(w, binary.LittleEndian, vectorsVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(records))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		return err
	}
	for _, rec := range records {
		if err := binary.Write(w, binary.LittleEndian, rec.UserID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rec.InternalID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, rec.Vector); err != nil {
			return err
		}
	}
	return nil
}

// decodeVectors reads a .vectors file, failing with KindDeserialization on
// truncation, unknown version, or a dimension that disagrees with
// wantDimension.
func decodeVectors(r io.Reader, wantDimension int) ([]vectorRecord, error) {
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, vecdb.Deserialization("persistence: truncated .vectors header", err)
	}
	if version != vectorsVersion {
		return nil, vecdb.Deserialization(fmt.Sprintf("persistence: unsupported .vectors version %d", version), nil)
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, vecdb.Deserialization("persistence: truncated .vectors header", err)
	}
	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, vecdb.Deserialization("persistence: truncated .vectors header", err)
	}
	if int(dim) != wantDimension {
		return nil, vecdb.Deserialization(fmt.Sprintf("persistence: .vectors dimension %d disagrees with .hnsw dimension %d", dim, wantDimension), nil)
	}

	records := make([]vectorRecord, count)
	for i := range records {
		var userID uint64
		if err := binary.Read(r, binary.LittleEndian, &userID); err != nil {
			return nil, vecdb.Deserialization("persistence: truncated .vectors record", err)
		}
		var internalID int64
		if err := binary.Read(r, binary.LittleEndian, &internalID); err != nil {
			return nil, vecdb.Deserialization("persistence: truncated .vectors record", err)
		}
		vector := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vector); err != nil {
			return nil, vecdb.Deserialization("persistence: truncated .vectors record", err)
		}
		records[i] = vectorRecord{UserID: userID, InternalID: internalID, Vector: vector}
	}
	return records, nil
}
