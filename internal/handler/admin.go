package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saludvia/portal-server-go/internal/audit"
	"github.com/saludvia/portal-server-go/internal/middleware"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/service"
)

// AdminHandler exposes the clinic administration endpoints. Clinic creation
// is superadmin-only; the rest requires clinic_admin.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireRole(model.RoleSuperadmin)).Post("/clinics", h.CreateClinic)
	r.With(middleware.RequireRole(model.RoleSuperadmin)).Post("/identity/lookup", h.LookupIdentity)

	r.Route("/clinics/{clinicID}", func(r chi.Router) {
		r.Use(middleware.RequireRole(model.RoleClinicAdmin))
		r.Post("/patients", h.CreatePatient)
		r.Post("/professionals", h.CreateProfessional)
		r.Post("/patients/{userID}/associate", h.AssociatePatient)
		r.Post("/professionals/{userID}/associate", h.AssociateProfessional)
	})

	r.With(middleware.RequireRole(model.RoleClinicAdmin)).
		Post("/professionals/{userID}/validate-rethus", h.ValidateRethus)

	return r
}

func (h *AdminHandler) CreateClinic(w http.ResponseWriter, r *http.Request) {
	var input service.CreateClinicInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}

	clinic, err := h.admin.CreateClinic(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventAdminCreate, map[string]interface{}{"clinicId": clinic.ID})
	writeJSON(w, http.StatusCreated, clinic)
}

// adminCaller translates the request identity into the service-level caller.
func adminCaller(r *http.Request) service.Caller {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return service.Caller{}
	}
	return service.Caller{
		UserID:     identity.UserID,
		Superadmin: identity.HasRole(model.RoleSuperadmin),
	}
}

func (h *AdminHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuidParam(r, "clinicID")
	if err != nil {
		writeError(w, err)
		return
	}

	var input service.CreatePersonInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.admin.CreatePatient(r.Context(), adminCaller(r), clinicID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventAdminCreate, map[string]interface{}{
		"clinicId":          clinicID,
		"patientUserId":     result.Profile.UserID,
		"alreadyAssociated": result.AlreadyAssociated,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":            result.Profile.UserID,
		"profile":           result.Profile,
		"alreadyAssociated": result.AlreadyAssociated,
	})
}

func (h *AdminHandler) CreateProfessional(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuidParam(r, "clinicID")
	if err != nil {
		writeError(w, err)
		return
	}

	var input service.CreatePersonInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.admin.CreateProfessional(r.Context(), adminCaller(r), clinicID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventAdminCreate, map[string]interface{}{
		"clinicId":           clinicID,
		"professionalUserId": result.Profile.UserID,
		"alreadyAssociated":  result.AlreadyAssociated,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":            result.Profile.UserID,
		"profile":           result.Profile,
		"alreadyAssociated": result.AlreadyAssociated,
	})
}

func (h *AdminHandler) AssociatePatient(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuidParam(r, "clinicID")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := uuidParam(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.admin.AssociatePatient(r.Context(), adminCaller(r), clinicID, userID); err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventAdminAssociate, map[string]interface{}{
		"clinicId":      clinicID,
		"patientUserId": userID,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"associated": true})
}

func (h *AdminHandler) AssociateProfessional(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuidParam(r, "clinicID")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := uuidParam(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.admin.AssociateProfessional(r.Context(), adminCaller(r), clinicID, userID); err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventAdminAssociate, map[string]interface{}{
		"clinicId":           clinicID,
		"professionalUserId": userID,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"associated": true})
}

type identityLookupRequest struct {
	DocumentType   string `json:"documentType" validate:"required"`
	DocumentNumber string `json:"documentNumber" validate:"required"`
}

func (h *AdminHandler) LookupIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityLookupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.admin.LookupIdentity(r.Context(), model.DocumentType(req.DocumentType), req.DocumentNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) ValidateRethus(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.admin.ValidateRethus(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.auditAdmin(r, audit.EventRethusValidate, map[string]interface{}{
		"professionalUserId": userID,
		"status":             string(result.Status),
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) auditAdmin(r *http.Request, event audit.EventType, details map[string]interface{}) {
	userID := ""
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		userID = identity.UserID
	}
	audit.LogFromRequest(r, audit.Event{Type: event, UserID: userID, Details: details})
}
