package contentstore

// Mutation is one entry of a mutate request. Only patches are needed here;
// document creation happens on the customer side.
type Mutation struct {
	Patch *PatchSpec `json:"patch,omitempty"`
}

type PatchSpec struct {
	ID           string         `json:"id"`
	Set          map[string]any `json:"set,omitempty"`
	SetIfMissing map[string]any `json:"setIfMissing,omitempty"`
	Insert       *InsertSpec    `json:"insert,omitempty"`
}

// InsertSpec appends items after the given array position. Appending is the
// only array write this service performs: audit trails are never replaced.
type InsertSpec struct {
	After string `json:"after"`
	Items []any  `json:"items"`
}

type Patch struct {
	spec PatchSpec
}

func NewPatch(documentID string) *Patch {
	return &Patch{spec: PatchSpec{ID: documentID}}
}

func (p *Patch) Set(field string, value any) *Patch {
	if p.spec.Set == nil {
		p.spec.Set = make(map[string]any)
	}
	p.spec.Set[field] = value
	return p
}

func (p *Patch) SetIfMissing(field string, value any) *Patch {
	if p.spec.SetIfMissing == nil {
		p.spec.SetIfMissing = make(map[string]any)
	}
	p.spec.SetIfMissing[field] = value
	return p
}

// Append adds items to the end of an array field as a native atomic append.
func (p *Patch) Append(field string, items ...any) *Patch {
	p.spec.Insert = &InsertSpec{
		After: field + "[-1]",
		Items: items,
	}
	return p
}

func (p *Patch) Mutation() Mutation {
	spec := p.spec
	return Mutation{Patch: &spec}
}
