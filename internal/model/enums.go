package model

type Role string

const (
	RolePatient      Role = "patient"
	RoleProfessional Role = "professional"
	RoleClinicAdmin  Role = "clinic_admin"
	RoleSuperadmin   Role = "superadmin"
)

// DocumentType is a Colombian identity document type code.
type DocumentType string

const (
	DocTypeCC DocumentType = "CC" // cédula de ciudadanía
	DocTypeTI DocumentType = "TI" // tarjeta de identidad
	DocTypeCE DocumentType = "CE" // cédula de extranjería
	DocTypePA DocumentType = "PA" // pasaporte
	DocTypeRC DocumentType = "RC" // registro civil
)

var ValidDocumentTypes = []DocumentType{DocTypeCC, DocTypeTI, DocTypeCE, DocTypePA, DocTypeRC}

func IsValidDocumentType(t DocumentType) bool {
	for _, v := range ValidDocumentTypes {
		if t == v {
			return true
		}
	}
	return false
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// GuestAction identifies what a guest did with a share link.
type GuestAction string

const (
	GuestActionView     GuestAction = "view"
	GuestActionDownload GuestAction = "download"
	GuestActionChat     GuestAction = "chat"
)

type RethusStatus string

const (
	RethusStatusVerified   RethusStatus = "verified"
	RethusStatusNotFound   RethusStatus = "not_found"
	RethusStatusUnverified RethusStatus = "unverified"
)
