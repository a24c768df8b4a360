// Package chunkstore implements the chunked DHT layer of spec §4.5: it
// makes arbitrary byte blobs addressable by one base key, splitting
// oversized values into a manifest plus chunks and reassembling them with
// hash verification on read. The chunk-base-key derivation and the
// size-threshold single-chunk fast path are grounded on the fixed-size
// state-chunking pattern in tos-network-gtos's accountsigner package,
// adapted from EVM storage words to DHT values.
package chunkstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/idnerrors"
)

// MaxChunk is the largest value published directly under H(base_key)
// before this layer switches to the manifest+chunks protocol.
const MaxChunk = 4096

// manifest is the deterministic, byte-identical-across-platforms encoding
// of spec §4.5 step 2: total length, chunk count, per-chunk hashes, and a
// content address. JSON of this fixed struct (fields emitted in declaration
// order) with no floating point gives a stable encoding without a bespoke
// binary format.
type manifest struct {
	TotalLen       uint64   `json:"total_len"`
	ChunkCount     uint64   `json:"chunk_count"`
	ChunkHashes    []string `json:"chunk_hashes"`
	ContentAddress string   `json:"content_address"`
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum[:])
}

func baseKeyHash(baseKey string) []byte {
	sum := sha256.Sum256([]byte(baseKey))
	return sum[:]
}

func manifestKey(baseKey string) []byte {
	sum := sha256.Sum256([]byte(baseKey + ":manifest"))
	return sum[:]
}

func chunkKey(baseKey string, index uint64) []byte {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, len(baseKey)+len(":chunk:")+8)
	buf = append(buf, []byte(baseKey+":chunk:")...)
	buf = append(buf, idx[:]...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

func chunkCount(totalLen int) uint64 {
	if totalLen == 0 {
		return 0
	}
	return (uint64(totalLen) + MaxChunk - 1) / MaxChunk
}

// Publish implements spec §4.5's publish(base_key, bytes, ttl_class).
func Publish(ctx context.Context, overlay dht.Overlay, baseKey string, value []byte, class dht.ValueType) error {
	if len(value) <= MaxChunk {
		return overlay.Put(ctx, baseKeyHash(baseKey), value, class)
	}

	count := chunkCount(len(value))
	hashes := make([]string, count)
	for i := uint64(0); i < count; i++ {
		start := i * MaxChunk
		end := start + MaxChunk
		if end > uint64(len(value)) {
			end = uint64(len(value))
		}
		chunk := value[start:end]
		hashes[i] = hashHex(chunk)
		if err := overlay.Put(ctx, chunkKey(baseKey, i), chunk, class); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", idnerrors.ErrDHT, i, err)
		}
	}

	m := manifest{
		TotalLen:       uint64(len(value)),
		ChunkCount:     count,
		ChunkHashes:    hashes,
		ContentAddress: hashHex(value),
	}
	mBytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: manifest encode: %v", idnerrors.ErrInvalidInput, err)
	}
	if err := overlay.Put(ctx, manifestKey(baseKey), mBytes, class); err != nil {
		return fmt.Errorf("%w: manifest: %v", idnerrors.ErrDHT, err)
	}
	return nil
}

// Fetch implements spec §4.5's fetch(base_key) -> Result<bytes>: single
// chunk first, then manifest+chunks, verifying every chunk hash before
// concatenating (the integrity rule of spec §4.5).
func Fetch(ctx context.Context, overlay dht.Overlay, baseKey string) ([]byte, error) {
	if v, found, err := overlay.Get(ctx, baseKeyHash(baseKey)); err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	} else if found {
		return v, nil
	}

	mBytes, found, err := overlay.Get(ctx, manifestKey(baseKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	}
	if !found {
		return nil, idnerrors.ErrNotFound
	}
	var m manifest
	if err := json.Unmarshal(mBytes, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest decode: %v", idnerrors.ErrParseFailed, err)
	}
	if uint64(len(m.ChunkHashes)) != m.ChunkCount {
		return nil, fmt.Errorf("%w: manifest chunk_hashes length mismatch", idnerrors.ErrParseFailed)
	}

	out := make([]byte, 0, m.TotalLen)
	for i := uint64(0); i < m.ChunkCount; i++ {
		chunk, found, err := overlay.Get(ctx, chunkKey(baseKey, i))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: chunk %d missing", idnerrors.ErrIncompleteChunks, i)
		}
		if hashHex(chunk) != m.ChunkHashes[i] {
			return nil, fmt.Errorf("%w: chunk %d hash mismatch", idnerrors.ErrIncompleteChunks, i)
		}
		out = append(out, chunk...)
	}
	if uint64(len(out)) != m.TotalLen {
		return nil, fmt.Errorf("%w: reassembled length mismatch", idnerrors.ErrIncompleteChunks)
	}
	if hashHex(out) != m.ContentAddress {
		return nil, fmt.Errorf("%w: content address mismatch", idnerrors.ErrIncompleteChunks)
	}
	return out, nil
}

// FetchExact is a convenience for callers expecting a fixed-length value
// (spec §4.2 step 2: the alias lookup "must return exactly 128 bytes").
func FetchExact(ctx context.Context, overlay dht.Overlay, baseKey string, n int) ([]byte, error) {
	v, err := Fetch(ctx, overlay, baseKey)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", idnerrors.ErrNotFound, n, len(v))
	}
	return v, nil
}

// PublishSigned is Publish using the overlay's signed write (spec §6.1
// put_signed): valueID ties every chunk and the manifest to one signer so a
// later republish by the same owner replaces its prior write at this base
// key instead of accumulating a second candidate next to it.
func PublishSigned(ctx context.Context, overlay dht.Overlay, baseKey string, value []byte, valueID uint64, class dht.ValueType) error {
	if len(value) <= MaxChunk {
		return overlay.PutSigned(ctx, baseKeyHash(baseKey), value, valueID, class)
	}

	count := chunkCount(len(value))
	hashes := make([]string, count)
	for i := uint64(0); i < count; i++ {
		start := i * MaxChunk
		end := start + MaxChunk
		if end > uint64(len(value)) {
			end = uint64(len(value))
		}
		chunk := value[start:end]
		hashes[i] = hashHex(chunk)
		if err := overlay.PutSigned(ctx, chunkKey(baseKey, i), chunk, valueID, class); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", idnerrors.ErrDHT, i, err)
		}
	}

	m := manifest{
		TotalLen:       uint64(len(value)),
		ChunkCount:     count,
		ChunkHashes:    hashes,
		ContentAddress: hashHex(value),
	}
	mBytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: manifest encode: %v", idnerrors.ErrInvalidInput, err)
	}
	if err := overlay.PutSigned(ctx, manifestKey(baseKey), mBytes, valueID, class); err != nil {
		return fmt.Errorf("%w: manifest: %v", idnerrors.ErrDHT, err)
	}
	return nil
}

// FetchAllCandidates returns every distinct whole-value candidate currently
// live at baseKey, for callers that apply their own cross-candidate
// selection (spec §3.2 I4 newest-valid selection; spec §5 "the overlay is
// append-only at the value-set level"). Each candidate is independently
// reassembled and hash-verified; a candidate whose chunks are incomplete or
// corrupt is dropped rather than failing the whole call.
//
// Single-chunk candidates (alias records) get exact per-candidate
// newest-valid protection, since GetAll on the base key returns the raw
// value-set directly. Identity records always exceed MaxChunk (their
// hex-encoded public keys alone do) and take the manifest+chunks path:
// competing manifests are each resolved against the value overlay.Get
// returns for each chunk slot, so a manifest whose chunks are not the ones
// Get returns is dropped — this subsystem's single-writer model
// (spec §3.1: "owned by exactly one keypair") means that path only matters
// against a still-reconciling replica set, not a genuine multi-signer race.
func FetchAllCandidates(ctx context.Context, overlay dht.Overlay, baseKey string) ([][]byte, error) {
	direct, err := overlay.GetAll(ctx, baseKeyHash(baseKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	}
	if len(direct) > 0 {
		out := make([][]byte, len(direct))
		copy(out, direct)
		return out, nil
	}

	manifests, err := overlay.GetAll(ctx, manifestKey(baseKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	}
	var candidates [][]byte
	for _, mBytes := range manifests {
		var m manifest
		if err := json.Unmarshal(mBytes, &m); err != nil {
			continue
		}
		if uint64(len(m.ChunkHashes)) != m.ChunkCount {
			continue
		}
		out := make([]byte, 0, m.TotalLen)
		ok := true
		for i := uint64(0); i < m.ChunkCount; i++ {
			chunk, found, err := overlay.Get(ctx, chunkKey(baseKey, i))
			if err != nil || !found || hashHex(chunk) != m.ChunkHashes[i] {
				ok = false
				break
			}
			out = append(out, chunk...)
		}
		if !ok || uint64(len(out)) != m.TotalLen || hashHex(out) != m.ContentAddress {
			continue
		}
		candidates = append(candidates, out)
	}
	return candidates, nil
}
