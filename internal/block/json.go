package block

import (
	"encoding/json"
	"fmt"

	"github.com/collisionlabs/cminer/internal/hashx"
)

// Template is the JSON shape returned by GET /next and GET
// /block/{hex}, matching the node's field names exactly: version, root,
// parentid, difficulty, timestamp, nonces. nonces are ignored as a
// mining target (the template's own nonces are whatever the node last
// stored, typically zero) but are round-tripped faithfully.
type Template struct {
	Version    uint8     `json:"version"`
	Root       string    `json:"root"`
	ParentID   string    `json:"parentid"`
	Difficulty uint64    `json:"difficulty"`
	Timestamp  uint64    `json:"timestamp"`
	Nonces     [3]uint64 `json:"nonces"`
}

// wireBlock is the JSON encoding of a Block, used by Block's
// MarshalJSON/UnmarshalJSON and so for the header half of a POST /add
// body and the header of a GET /block/{hex} response.
type wireBlock struct {
	Version    uint8     `json:"version"`
	Root       string    `json:"root"`
	ParentID   string    `json:"parentid"`
	Difficulty uint64    `json:"difficulty"`
	Timestamp  uint64    `json:"timestamp"`
	Nonces     [3]uint64 `json:"nonces"`
}

// MarshalJSON encodes a Block using the node's wire field names.
func (b *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBlock{
		Version:    b.Version,
		Root:       b.Root.String(),
		ParentID:   b.ParentID.String(),
		Difficulty: b.Difficulty,
		Timestamp:  b.Timestamp,
		Nonces:     b.Nonces,
	})
}

// UnmarshalJSON decodes a Block from the node's wire field names.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	root, err := hashx.FromHex(w.Root)
	if err != nil {
		return fmt.Errorf("block: invalid root: %w", err)
	}
	parentID, err := hashx.FromHex(w.ParentID)
	if err != nil {
		return fmt.Errorf("block: invalid parentid: %w", err)
	}
	b.Version = w.Version
	b.Root = root
	b.ParentID = parentID
	b.Difficulty = w.Difficulty
	b.Timestamp = w.Timestamp
	b.Nonces = Nonces(w.Nonces)
	return nil
}

// ToBlock converts a decoded Template into a Block, preserving whatever
// nonces the template carried (normally the zero triple).
func (t Template) ToBlock() (*Block, error) {
	root, err := hashx.FromHex(t.Root)
	if err != nil {
		return nil, fmt.Errorf("block: invalid root in template: %w", err)
	}
	parentID, err := hashx.FromHex(t.ParentID)
	if err != nil {
		return nil, fmt.Errorf("block: invalid parentid in template: %w", err)
	}
	return &Block{
		Version:    t.Version,
		Root:       root,
		ParentID:   parentID,
		Difficulty: t.Difficulty,
		Timestamp:  t.Timestamp,
		Nonces:     Nonces(t.Nonces),
	}, nil
}

// TemplateFromBlock converts a Block back into wire Template shape,
// rendering Root and ParentID as hex.
func TemplateFromBlock(b *Block) Template {
	return Template{
		Version:    b.Version,
		Root:       b.Root.String(),
		ParentID:   b.ParentID.String(),
		Difficulty: b.Difficulty,
		Timestamp:  b.Timestamp,
		Nonces:     b.Nonces,
	}
}
