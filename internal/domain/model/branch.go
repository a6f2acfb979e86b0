package model

// Branch is a church location.
type Branch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Location string `json:"location"`
}

// BranchFromFields normalizes a store row into a Branch.
func BranchFromFields(id string, f map[string]any) Branch {
	return Branch{
		ID:       id,
		Name:     text(f, FieldBranchName),
		Region:   text(f, FieldBranchRegion),
		Location: text(f, FieldBranchLocation),
	}
}

// Fields returns the store field map for creating b.
func (b Branch) Fields() map[string]any {
	return map[string]any{
		FieldBranchName:     b.Name,
		FieldBranchRegion:   b.Region,
		FieldBranchLocation: b.Location,
	}
}

// BranchUpdate is a partial branch.
type BranchUpdate struct {
	Name     *string `json:"name,omitempty"`
	Region   *string `json:"region,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Fields returns only the supplied fields.
func (u BranchUpdate) Fields() map[string]any {
	f := map[string]any{}
	setText(f, FieldBranchName, u.Name)
	setText(f, FieldBranchRegion, u.Region)
	setText(f, FieldBranchLocation, u.Location)
	return f
}
