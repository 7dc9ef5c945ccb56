package providers

import (
	"fmt"
	"strings"
)

type NamedProvider struct {
	Ref      ProviderRef
	Provider InferenceProvider
}

// Manager owns the configured inference providers in priority order. Real
// providers come before the mock so a deployment with keys never falls back
// silently, while a keyless deployment still works end to end.
type Manager struct {
	providers []NamedProvider
}

func NewManager(providerList string) (*Manager, error) {
	refs := ParseProviderList(providerList)
	m := &Manager{}
	for _, ref := range refs {
		p, err := buildProvider(ref)
		if err != nil {
			return nil, err
		}
		m.providers = append(m.providers, NamedProvider{Ref: ref, Provider: p})
	}
	if len(m.providers) == 0 {
		m.providers = []NamedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider()}}
	}
	return m, nil
}

func (m *Manager) First() InferenceProvider {
	return m.providers[m.PreferredOrder()[0]].Provider
}

func (m *Manager) ByIndex(i int) (InferenceProvider, ProviderRef) {
	if i < 0 || i >= len(m.providers) {
		i = 0
	}
	return m.providers[i].Provider, m.providers[i].Ref
}

func (m *Manager) Count() int {
	return len(m.providers)
}

// PreferredOrder lists provider indices with the mock demoted to last.
func (m *Manager) PreferredOrder() []int {
	n := len(m.providers)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if strings.ToLower(m.providers[i].Ref.Name) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if strings.ToLower(m.providers[i].Ref.Name) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) FindByName(name string) (InferenceProvider, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.providers {
		if strings.ToLower(m.providers[i].Ref.Name) == target {
			return m.providers[i].Provider, m.providers[i].Ref, true
		}
	}
	return nil, ProviderRef{}, false
}

func buildProvider(ref ProviderRef) (InferenceProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
