package hnsw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
)

// codecVersion is the only version this package writes or accepts. Per the
// persistence round-trip requirements there is nothing to be backward
// compatible with yet, so any other value — older or newer — is rejected.
const codecVersion uint32 = 1

// Serialize encodes the index into the self-describing little-endian
// binary format: a header, then one record per node, each record followed
// by that node's per-level adjacency lists.
func (idx *Index) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	metricName := idx.metric.String()
	_ = binary.Write(&buf, binary.LittleEndian, codecVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint64(idx.dim))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(metricName)))
	buf.WriteString(metricName)
	_ = binary.Write(&buf, binary.LittleEndian, uint64(idx.m))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(idx.efConstruction))
	_ = binary.Write(&buf, binary.LittleEndian, idx.entryPoint)
	_ = binary.Write(&buf, binary.LittleEndian, int32(idx.maxLevel))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(idx.nodes)))

	for id, n := range idx.nodes {
		_ = binary.Write(&buf, binary.LittleEndian, int64(id))
		_ = binary.Write(&buf, binary.LittleEndian, int32(n.topLevel))
		_ = binary.Write(&buf, binary.LittleEndian, n.vector)
		tombstoneFlag := byte(0)
		if idx.tombstones.Contains(uint32(id)) {
			tombstoneFlag = 1
		}
		buf.WriteByte(tombstoneFlag)

		for l := 0; l <= n.topLevel; l++ {
			neighbors := n.neighbors[l]
			_ = binary.Write(&buf, binary.LittleEndian, uint32(len(neighbors)))
			_ = binary.Write(&buf, binary.LittleEndian, neighbors)
		}
	}

	return buf.Bytes(), nil
}

// Deserialize reconstructs an index from bytes produced by Serialize. It
// fails with a KindDeserialization *Error on any truncation, unknown
// version, unknown metric name, or dimension-inconsistent node.
func Deserialize(data []byte) (*Index, error) {
	r := bytes.NewReader(data)

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	if version != codecVersion {
		return nil, vecdb.Deserialization(fmt.Sprintf("hnsw: unsupported version %d", version), nil)
	}

	var dim64 uint64
	if err := binary.Read(r, binary.LittleEndian, &dim64); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	dim := int(dim64)

	var metricLen uint32
	if err := binary.Read(r, binary.LittleEndian, &metricLen); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	metricBytes := make([]byte, metricLen)
	if _, err := io.ReadFull(r, metricBytes); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated metric name", err)
	}
	metric, err := distance.ParseMetric(string(metricBytes))
	if err != nil {
		return nil, vecdb.Deserialization("hnsw: unknown metric name", err)
	}

	var m, efConstruction uint64
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &efConstruction); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}

	var entryPoint int64
	if err := binary.Read(r, binary.LittleEndian, &entryPoint); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	var maxLevel int32
	if err := binary.Read(r, binary.LittleEndian, &maxLevel); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}
	var nodeCount uint64
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return nil, vecdb.Deserialization("hnsw: truncated header", err)
	}

	idx, err := New(Options{
		Dimension:      dim,
		Metric:         metric,
		M:              int(m),
		EfConstruction: int(efConstruction),
	})
	if err != nil {
		return nil, vecdb.Deserialization("hnsw: invalid header configuration", err)
	}
	idx.entryPoint = entryPoint
	idx.maxLevel = int(maxLevel)
	idx.nodes = make([]*node, nodeCount)

	for i := uint64(0); i < nodeCount; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, vecdb.Deserialization("hnsw: truncated node record", err)
		}
		var topLevel int32
		if err := binary.Read(r, binary.LittleEndian, &topLevel); err != nil {
			return nil, vecdb.Deserialization("hnsw: truncated node record", err)
		}
		vector := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vector); err != nil {
			return nil, vecdb.Deserialization("hnsw: truncated vector", err)
		}
		tombstoneFlag, err := r.ReadByte()
		if err != nil {
			return nil, vecdb.Deserialization("hnsw: truncated tombstone flag", err)
		}

		if id < 0 || id >= int64(nodeCount) {
			return nil, vecdb.Deserialization("hnsw: node id out of range", nil)
		}

		n := &node{
			vector:    vector,
			topLevel:  int(topLevel),
			neighbors: make([][]int64, int(topLevel)+1),
		}
		for l := 0; l <= int(topLevel); l++ {
			var neighborCount uint32
			if err := binary.Read(r, binary.LittleEndian, &neighborCount); err != nil {
				return nil, vecdb.Deserialization("hnsw: truncated adjacency", err)
			}
			neighbors := make([]int64, neighborCount)
			if neighborCount > 0 {
				if err := binary.Read(r, binary.LittleEndian, neighbors); err != nil {
					return nil, vecdb.Deserialization("hnsw: truncated adjacency", err)
				}
			}
			n.neighbors[l] = neighbors
		}
		idx.nodes[id] = n
		if tombstoneFlag != 0 {
			idx.tombstones.Add(uint32(id))
		}
	}

	for id, n := range idx.nodes {
		if n == nil {
			return nil, vecdb.Deserialization(fmt.Sprintf("hnsw: missing node record for id %d", id), nil)
		}
	}

	return idx, nil
}
