// Package session implements the observation session lifecycle: a state
// machine over an append-only event log and a mutable metadata snapshot,
// persisted together per session directory.
//
// A typical run:
//
//	s, _ := session.New(root, nil)
//	_ = s.Start(jd.Now)
//	_ = s.Comment("first light", jd.Now)
//	_ = s.End(jd.Now)
//
// Sessions survive process restarts via Load, which restores state from
// the persisted snapshot and continues appending to the same documents.
package session
