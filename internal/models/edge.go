package models

// EdgeKey addresses a link by its ordered endpoint pair.
type EdgeKey struct {
	Source string
	Target string
}

// String formats the key as "source-target", the edge id used by clients.
func (k EdgeKey) String() string {
	return k.Source + "-" + k.Target
}

// Link is a directed, labeled relation between two nodes.
type Link struct {
	Source   NodeID  `json:"source"`
	Target   NodeID  `json:"target"`
	Weight   float64 `json:"weight"`
	Relation string  `json:"relation"`
}

// Key returns the (source, target) address of the link.
func (l *Link) Key() EdgeKey {
	return EdgeKey{Source: l.Source.Key(), Target: l.Target.Key()}
}

// SelfLoop reports whether the link starts and ends on the same node.
func (l *Link) SelfLoop() bool {
	return l.Source.Equal(l.Target)
}

// Touches reports whether the link has id as either endpoint.
func (l *Link) Touches(id string) bool {
	return l.Source.Key() == id || l.Target.Key() == id
}
