package protocol

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quietskies/obslog/params"
)

// TreeLog persists the event log as a single tree-structured YAML
// document (<sessionID>.aoy): a root node holding the metadata snapshot
// as one subtree and one child node per entry, tagged with its kind and
// carrying id/time plus the kind-specific fields.
//
// The metadata subtree is rewritten in full on every mutating call, so
// the stored document is always self-describing without a second file.
type TreeLog struct {
	dir       string
	sessionID string
}

// NewTreeLog returns a TreeLog writing into dir (storageRoot/sessionID).
func NewTreeLog(dir, sessionID string) *TreeLog {
	return &TreeLog{dir: dir, sessionID: sessionID}
}

// Create writes the initial tree document.
// Fails with an error matching fs.ErrExist if the file is present.
func (t *TreeLog) Create(first Entry, snap *params.Store) error {
	meta, err := metadataNode(snap)
	if err != nil {
		return err
	}
	en, err := entryNode(first)
	if err != nil {
		return err
	}

	doc := mappingNode(
		keyNode("session"), mappingNode(
			keyNode("metadata"), meta,
			keyNode("entries"), &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{en}},
		),
	)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal tree document: %w", err)
	}

	f, err := os.OpenFile(treePath(t.dir, t.sessionID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create tree document: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write tree document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write tree document: %w", err)
	}
	return nil
}

// Append rewrites the document with the entry added and the metadata
// subtree refreshed, replacing the file in one atomic rename so a failed
// write leaves the prior document intact.
func (t *TreeLog) Append(e Entry, snap *params.Store) error {
	path := treePath(t.dir, t.sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tree document: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse tree document: %w", err)
	}
	root := documentRoot(&doc)
	if root == nil {
		return fmt.Errorf("tree document %s: missing session node", path)
	}

	meta, err := metadataNode(snap)
	if err != nil {
		return err
	}
	if !replaceChild(root, "metadata", meta) {
		return fmt.Errorf("tree document %s: missing metadata node", path)
	}

	entries := childValue(root, "entries")
	if entries == nil || entries.Kind != yaml.SequenceNode {
		return fmt.Errorf("tree document %s: missing entries node", path)
	}
	en, err := entryNode(e)
	if err != nil {
		return err
	}
	entries.Content = append(entries.Content, en)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal tree document: %w", err)
	}
	if err := writeFileAtomic(path, out); err != nil {
		return fmt.Errorf("write tree document: %w", err)
	}
	return nil
}

// readTreeSnapshot extracts the metadata subtree of the tree document
// into a Store, preserving the stored key order.
func readTreeSnapshot(path string) (*params.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tree document: %w", err)
	}
	root := documentRoot(&doc)
	if root == nil {
		return nil, fmt.Errorf("tree document %s: missing session node", path)
	}
	meta := childValue(root, "metadata")
	if meta == nil || meta.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tree document %s: missing metadata node", path)
	}

	pairs := make([]params.KV, 0, len(meta.Content)/2)
	for i := 0; i+1 < len(meta.Content); i += 2 {
		var v any
		if err := meta.Content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("decode metadata field %s: %w", meta.Content[i].Value, err)
		}
		pairs = append(pairs, params.KV{Key: meta.Content[i].Value, Value: v})
	}
	store, err := params.FromPairs(pairs)
	if err != nil {
		return nil, fmt.Errorf("rebuild snapshot: %w", err)
	}
	return store, nil
}

// documentRoot returns the "session" mapping of a parsed tree document.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil
	}
	root := childValue(top, "session")
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	return root
}

// childValue returns the value node for a key of a mapping node.
func childValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// replaceChild swaps the value node for a key of a mapping node.
func replaceChild(m *yaml.Node, key string, value *yaml.Node) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return true
		}
	}
	return false
}

// metadataNode builds the ordered metadata mapping from a snapshot.
func metadataNode(snap *params.Store) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range snap.Snapshot() {
		vn, err := valueNode(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("encode metadata field %s: %w", kv.Key, err)
		}
		m.Content = append(m.Content, keyNode(kv.Key), vn)
	}
	return m, nil
}

// entryNode builds one entry mapping: kind, id and time first, then the
// kind-specific payload fields in order.
func entryNode(e Entry) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}

	kindNode, err := valueNode(string(e.Kind))
	if err != nil {
		return nil, err
	}
	idNode, err := valueNode(e.ID)
	if err != nil {
		return nil, err
	}
	timeNode, err := valueNode(e.Time)
	if err != nil {
		return nil, err
	}
	m.Content = append(m.Content,
		keyNode("kind"), kindNode,
		keyNode("id"), idNode,
		keyNode("time"), timeNode,
	)

	for _, f := range e.Payload.fields() {
		vn, err := valueNode(f.value)
		if err != nil {
			return nil, fmt.Errorf("encode entry field %s: %w", f.name, err)
		}
		m.Content = append(m.Content, keyNode(f.name), vn)
	}
	return m, nil
}

// mappingNode builds a mapping node from alternating key/value nodes.
func mappingNode(content ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: content}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func valueNode(v any) (*yaml.Node, error) {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
