package members

// Member is one record of the membership directory. Optional fields are empty
// when absent.
type Member struct {
	FullName         string  `json:"fullName"`
	PhoneNumber      string  `json:"phoneNumber"`
	Address          string  `json:"address,omitempty"`
	EmergencyContact string  `json:"emergencyContact,omitempty"`
	Gender           string  `json:"gender"`
	Service          Service `json:"service"`
	ProfileImageURL  string  `json:"profileImageUrl,omitempty"`
	// Barcode is an already-encoded image (data URI or base64).
	Barcode string `json:"barcode,omitempty"`
}

type Service struct {
	Name string `json:"name"`
}
