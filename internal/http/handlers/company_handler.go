package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/response"
	"github.com/itcons/afisha/internal/repo/postgres"
)

// CompanyHandler serves the organizer's company profile and legal
// details as one combined document.
type CompanyHandler struct {
	Accounts   postgres.AccountRepo
	Organizers postgres.OrganizerRepo
}

func NewCompanyHandler(accounts postgres.AccountRepo, organizers postgres.OrganizerRepo) *CompanyHandler {
	return &CompanyHandler{Accounts: accounts, Organizers: organizers}
}

// Register mounts under the organizer role guard.
func (h *CompanyHandler) Register(r chi.Router) {
	r.Get("/company", h.get)
	r.Put("/company", h.update)
}

func (h *CompanyHandler) get(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}
	details, err := h.Organizers.GetDetails(r.Context(), profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"company": companyPayload(profile),
		"details": detailsPayload(details),
	})
}

// Partial update: a field absent from the body keeps its stored value.
type companyFields struct {
	DisplayName   *string `json:"display_name"`
	Phone         *string `json:"phone"`
	Telegram      *string `json:"telegram"`
	Whatsapp      *string `json:"whatsapp"`
	WebsiteURL    *string `json:"website_url"`
	AddressText   *string `json:"address_text"`
	ContactPerson *string `json:"contact_person"`
	AboutText     *string `json:"about_text"`
}

type detailsFields struct {
	ShortLegalName   *string `json:"short_legal_name"`
	FullLegalName    *string `json:"full_legal_name"`
	LegalAddress     *string `json:"legal_address"`
	INN              *string `json:"inn"`
	OGRN             *string `json:"ogrn"`
	KPP              *string `json:"kpp"`
	OrgType          *string `json:"org_type"`
	RegistrationDate *string `json:"registration_date"`
	HeadFullName     *string `json:"head_full_name"`
	HeadPosition     *string `json:"head_position"`
	OKVED            *string `json:"okved"`
	OKOPF            *string `json:"okopf"`
	OPFName          *string `json:"opf_name"`
}

func (f *detailsFields) empty() bool {
	return f == nil || (f.ShortLegalName == nil && f.FullLegalName == nil && f.LegalAddress == nil &&
		f.INN == nil && f.OGRN == nil && f.KPP == nil && f.OrgType == nil && f.RegistrationDate == nil &&
		f.HeadFullName == nil && f.HeadPosition == nil && f.OKVED == nil && f.OKOPF == nil && f.OPFName == nil)
}

func (h *CompanyHandler) update(w http.ResponseWriter, r *http.Request) {
	profile, ok := resolveOrganizerProfile(r.Context(), w, r, h.Accounts, h.Organizers)
	if !ok {
		return
	}

	var in struct {
		Company *companyFields `json:"company"`
		Details *detailsFields `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	ctx := r.Context()

	if c := in.Company; c != nil {
		if c.DisplayName != nil {
			profile.DisplayName = *c.DisplayName
		}
		applyIfSet(&profile.Phone, c.Phone)
		applyIfSet(&profile.Telegram, c.Telegram)
		applyIfSet(&profile.Whatsapp, c.Whatsapp)
		applyIfSet(&profile.WebsiteURL, c.WebsiteURL)
		applyIfSet(&profile.AddressText, c.AddressText)
		applyIfSet(&profile.ContactPerson, c.ContactPerson)
		applyIfSet(&profile.AboutText, c.AboutText)
		if err := h.Organizers.UpdateProfile(ctx, profile); err != nil {
			response.InternalError(w)
			return
		}
	}

	details, err := h.Organizers.GetDetails(ctx, profile.ID)
	if err != nil {
		response.InternalError(w)
		return
	}

	switch {
	case details == nil && !in.Details.empty():
		details = &domain.OrganizerDetails{
			ProfileID:        profile.ID,
			ShortLegalName:   valueOr(in.Details.ShortLegalName, profile.DisplayName),
			FullLegalName:    valueOr(in.Details.FullLegalName, profile.DisplayName),
			LegalAddress:     valueOr(in.Details.LegalAddress, "Не указан"),
			INN:              valueOr(in.Details.INN, "0000000000"),
			OGRN:             in.Details.OGRN,
			KPP:              in.Details.KPP,
			OrgType:          valueOr(in.Details.OrgType, domain.OrgTypeLegalEntity),
			RegistrationDate: in.Details.RegistrationDate,
			HeadFullName:     in.Details.HeadFullName,
			HeadPosition:     in.Details.HeadPosition,
			OKVED:            in.Details.OKVED,
			OKOPF:            in.Details.OKOPF,
			OPFName:          in.Details.OPFName,
		}
		if err := h.Organizers.CreateDetails(ctx, details); err != nil {
			response.InternalError(w)
			return
		}
	case details != nil && in.Details != nil:
		d := in.Details
		if d.ShortLegalName != nil {
			details.ShortLegalName = *d.ShortLegalName
		}
		if d.FullLegalName != nil {
			details.FullLegalName = *d.FullLegalName
		}
		if d.LegalAddress != nil {
			details.LegalAddress = *d.LegalAddress
		}
		if d.INN != nil {
			details.INN = *d.INN
		}
		if d.OrgType != nil {
			details.OrgType = *d.OrgType
		}
		applyIfSet(&details.OGRN, d.OGRN)
		applyIfSet(&details.KPP, d.KPP)
		applyIfSet(&details.RegistrationDate, d.RegistrationDate)
		applyIfSet(&details.HeadFullName, d.HeadFullName)
		applyIfSet(&details.HeadPosition, d.HeadPosition)
		applyIfSet(&details.OKVED, d.OKVED)
		applyIfSet(&details.OKOPF, d.OKOPF)
		applyIfSet(&details.OPFName, d.OPFName)
		if err := h.Organizers.UpdateDetails(ctx, details); err != nil {
			response.InternalError(w)
			return
		}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"company": companyPayload(profile),
		"details": detailsPayload(details),
	})
}

func companyPayload(p *domain.OrganizerProfile) map[string]any {
	return map[string]any{
		"display_name":   p.DisplayName,
		"phone":          p.Phone,
		"telegram":       p.Telegram,
		"whatsapp":       p.Whatsapp,
		"website_url":    p.WebsiteURL,
		"address_text":   p.AddressText,
		"contact_person": p.ContactPerson,
		"about_text":     p.AboutText,
	}
}

// detailsPayload renders stored legal details, or the blank template
// when nothing has been saved yet.
func detailsPayload(d *domain.OrganizerDetails) map[string]any {
	if d == nil {
		return map[string]any{
			"short_legal_name":  "",
			"full_legal_name":   "",
			"legal_address":     "",
			"inn":               "",
			"ogrn":              "",
			"kpp":               "",
			"org_type":          domain.OrgTypeLegalEntity,
			"registration_date": nil,
			"head_full_name":    "",
			"head_position":     "",
			"okved":             "",
			"okopf":             "",
			"opf_name":          "",
		}
	}
	return map[string]any{
		"short_legal_name":  d.ShortLegalName,
		"full_legal_name":   d.FullLegalName,
		"legal_address":     d.LegalAddress,
		"inn":               d.INN,
		"ogrn":              d.OGRN,
		"kpp":               d.KPP,
		"org_type":          d.OrgType,
		"registration_date": d.RegistrationDate,
		"head_full_name":    d.HeadFullName,
		"head_position":     d.HeadPosition,
		"okved":             d.OKVED,
		"okopf":             d.OKOPF,
		"opf_name":          d.OPFName,
	}
}

func applyIfSet(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}

func valueOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}
