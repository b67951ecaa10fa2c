package config

// NewPolicyForTest builds a Policy pointing at the given file, bypassing flags
func NewPolicyForTest(path string) *Policy {
	return &Policy{path: path}
}
