package types

// ResultRecord maps requested attribute keywords to their parsed values for
// one matched entity. An absent key means the archive did not return a value
// for that attribute.
type ResultRecord map[string]string

// Get returns the value for an attribute keyword, or "" when absent.
func (r ResultRecord) Get(keyword string) string { return r[keyword] }
