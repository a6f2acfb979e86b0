package model

// Member is a congregation member as exposed by the API.
type Member struct {
	ID                         string `json:"id"`
	FirstName                  string `json:"first_name"`
	LastName                   string `json:"last_name"`
	Email                      string `json:"email"`
	PhoneNumber                string `json:"phone_number"`
	SoulType                   string `json:"soul_type"`
	EvangelismType             string `json:"evangelism_type"`
	Department                 string `json:"department"`
	CompletedMembership        bool   `json:"completed_membership"`
	CompletedNewBelievers      bool   `json:"completed_new_believers"`
	IsBaptised                 bool   `json:"is_baptised"`
	CompletedSpiritualMaturity bool   `json:"completed_spiritual_maturity"`
	FirstAttendanceDate        string `json:"first_attendance_date"`
	LastAttendanceDate         string `json:"last_attendance_date"`
	SoulWinner                 string `json:"soul_winner"`
	Address                    string `json:"address"`
	PointOfContact             string `json:"point_of_contact"`
	BranchID                   string `json:"branch_id"`
}

// MemberFromFields normalizes a store row into a Member.
func MemberFromFields(id string, f map[string]any) Member {
	return Member{
		ID:                         id,
		FirstName:                  text(f, FieldFirstName),
		LastName:                   text(f, FieldLastName),
		Email:                      text(f, FieldEmail),
		PhoneNumber:                text(f, FieldPhoneNumber),
		SoulType:                   text(f, FieldSoulType),
		EvangelismType:             text(f, FieldEvangelismType),
		Department:                 text(f, FieldDepartment),
		CompletedMembership:        flag(f, FieldCompletedMembership),
		CompletedNewBelievers:      flag(f, FieldCompletedNewBelievers),
		IsBaptised:                 flag(f, FieldIsBaptised),
		CompletedSpiritualMaturity: flag(f, FieldCompletedSpiritualMaturity),
		FirstAttendanceDate:        text(f, FieldFirstAttendanceDate),
		LastAttendanceDate:         text(f, FieldLastAttendanceDate),
		SoulWinner:                 text(f, FieldSoulWinner),
		Address:                    text(f, FieldAddress),
		PointOfContact:             text(f, FieldPointOfContact),
		BranchID:                   FirstLink(f, FieldBranch),
	}
}

// Fields returns the store field map for creating m. The id is never sent.
// Empty text fields are omitted so the store keeps them unset.
func (m Member) Fields() map[string]any {
	f := map[string]any{
		FieldCompletedMembership:        m.CompletedMembership,
		FieldCompletedNewBelievers:      m.CompletedNewBelievers,
		FieldIsBaptised:                 m.IsBaptised,
		FieldCompletedSpiritualMaturity: m.CompletedSpiritualMaturity,
	}
	for k, v := range map[string]string{
		FieldFirstName:           m.FirstName,
		FieldLastName:            m.LastName,
		FieldEmail:               m.Email,
		FieldPhoneNumber:         m.PhoneNumber,
		FieldSoulType:            m.SoulType,
		FieldEvangelismType:      m.EvangelismType,
		FieldDepartment:          m.Department,
		FieldFirstAttendanceDate: m.FirstAttendanceDate,
		FieldLastAttendanceDate:  m.LastAttendanceDate,
		FieldSoulWinner:          m.SoulWinner,
		FieldAddress:             m.Address,
		FieldPointOfContact:      m.PointOfContact,
	} {
		if v != "" {
			f[k] = v
		}
	}
	if m.BranchID != "" {
		f[FieldBranch] = Link(m.BranchID)
	}
	return f
}

// MemberUpdate is a partial member. Nil fields are left untouched.
type MemberUpdate struct {
	FirstName                  *string `json:"first_name,omitempty"`
	LastName                   *string `json:"last_name,omitempty"`
	Email                      *string `json:"email,omitempty"`
	PhoneNumber                *string `json:"phone_number,omitempty"`
	SoulType                   *string `json:"soul_type,omitempty"`
	EvangelismType             *string `json:"evangelism_type,omitempty"`
	Department                 *string `json:"department,omitempty"`
	CompletedMembership        *bool   `json:"completed_membership,omitempty"`
	CompletedNewBelievers      *bool   `json:"completed_new_believers,omitempty"`
	IsBaptised                 *bool   `json:"is_baptised,omitempty"`
	CompletedSpiritualMaturity *bool   `json:"completed_spiritual_maturity,omitempty"`
	FirstAttendanceDate        *string `json:"first_attendance_date,omitempty"`
	LastAttendanceDate         *string `json:"last_attendance_date,omitempty"`
	SoulWinner                 *string `json:"soul_winner,omitempty"`
	Address                    *string `json:"address,omitempty"`
	PointOfContact             *string `json:"point_of_contact,omitempty"`
	BranchID                   *string `json:"branch_id,omitempty"`
}

// Fields returns only the supplied fields.
func (u MemberUpdate) Fields() map[string]any {
	f := map[string]any{}
	setText(f, FieldFirstName, u.FirstName)
	setText(f, FieldLastName, u.LastName)
	setText(f, FieldEmail, u.Email)
	setText(f, FieldPhoneNumber, u.PhoneNumber)
	setText(f, FieldSoulType, u.SoulType)
	setText(f, FieldEvangelismType, u.EvangelismType)
	setText(f, FieldDepartment, u.Department)
	setFlag(f, FieldCompletedMembership, u.CompletedMembership)
	setFlag(f, FieldCompletedNewBelievers, u.CompletedNewBelievers)
	setFlag(f, FieldIsBaptised, u.IsBaptised)
	setFlag(f, FieldCompletedSpiritualMaturity, u.CompletedSpiritualMaturity)
	setText(f, FieldFirstAttendanceDate, u.FirstAttendanceDate)
	setText(f, FieldLastAttendanceDate, u.LastAttendanceDate)
	setText(f, FieldSoulWinner, u.SoulWinner)
	setText(f, FieldAddress, u.Address)
	setText(f, FieldPointOfContact, u.PointOfContact)
	setLink(f, FieldBranch, u.BranchID)
	return f
}

// MemberPage is one page of a member listing. HasMore is true when the page
// came back full, which may be a false positive on the last page.
type MemberPage struct {
	Data     []Member `json:"data"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	HasMore  bool     `json:"hasMore"`
}

// MemberCriteria selects members for the filtered-members report.
// Nil or empty criteria are ignored.
type MemberCriteria struct {
	Department                 string
	IsBaptised                 *bool
	CompletedMembership        *bool
	CompletedNewBelievers      *bool
	CompletedSpiritualMaturity *bool
}
