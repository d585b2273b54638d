package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/komercia/storefront/internal/platform/textutil"
	"github.com/komercia/storefront/internal/repositories"
)

var (
	// ErrCompanyInvalidInput indicates the profile payload failed validation.
	ErrCompanyInvalidInput = errors.New("company service: invalid input")
	// ErrCompanyUnavailable indicates the profile document could not be read or written.
	ErrCompanyUnavailable = errors.New("company service: unavailable")
)

// CompanyServiceDeps wires the company repository.
type CompanyServiceDeps struct {
	Company repositories.CompanyRepository
	Logger  func(context.Context, string, map[string]any)
}

type companyService struct {
	repo   repositories.CompanyRepository
	logger func(context.Context, string, map[string]any)
	mu     sync.Mutex
}

var _ CompanyService = (*companyService)(nil)

// NewCompanyService constructs a CompanyService enforcing dependency validation.
func NewCompanyService(deps CompanyServiceDeps) (CompanyService, error) {
	if deps.Company == nil {
		return nil, errors.New("company service: repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &companyService{repo: deps.Company, logger: logger}, nil
}

func (s *companyService) Get(ctx context.Context) (CompanyInfo, error) {
	info, err := s.repo.Get(ctx)
	if err != nil {
		return CompanyInfo{}, fmt.Errorf("%w: %v", ErrCompanyUnavailable, err)
	}
	return info, nil
}

// Replace overwrites the whole profile. Name, tagline and description are required.
func (s *companyService) Replace(ctx context.Context, info CompanyInfo) (CompanyInfo, error) {
	info = sanitizeCompany(info)
	var missing []string
	if info.Name == "" {
		missing = append(missing, "name")
	}
	if info.Tagline == "" {
		missing = append(missing, "tagline")
	}
	if info.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return CompanyInfo{}, fmt.Errorf("%w: missing %s", ErrCompanyInvalidInput, strings.Join(missing, ", "))
	}
	if err := validateSocial(info.Social); err != nil {
		return CompanyInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, info, "replace"); err != nil {
		return CompanyInfo{}, err
	}
	return info, nil
}

func (s *companyService) UpdateAbout(ctx context.Context, about CompanyAbout) (CompanyInfo, error) {
	about = CompanyAbout{
		History: textutil.StripMarkup(about.History),
		Vision:  textutil.StripMarkup(about.Vision),
		Values:  nonNilStrings(textutil.StripMarkupSlice(about.Values)),
	}
	if about.History == "" && about.Vision == "" && len(about.Values) == 0 {
		return CompanyInfo{}, fmt.Errorf("%w: about section is empty", ErrCompanyInvalidInput)
	}
	return s.patch(ctx, "about", func(info *CompanyInfo) { info.About = about })
}

func (s *companyService) UpdateContact(ctx context.Context, contact CompanyContact) (CompanyInfo, error) {
	contact = CompanyContact{
		Address:  textutil.StripMarkup(contact.Address),
		Phone:    textutil.StripMarkup(contact.Phone),
		Email:    textutil.StripMarkup(contact.Email),
		WhatsApp: textutil.StripMarkup(contact.WhatsApp),
		Hours:    textutil.StripMarkup(contact.Hours),
	}
	if contact.Email != "" && !emailPattern.MatchString(contact.Email) {
		return CompanyInfo{}, fmt.Errorf("%w: contact email is malformed", ErrCompanyInvalidInput)
	}
	return s.patch(ctx, "contact", func(info *CompanyInfo) { info.Contact = contact })
}

func (s *companyService) UpdateSocial(ctx context.Context, social CompanySocial) (CompanyInfo, error) {
	social = CompanySocial{
		Facebook:  strings.TrimSpace(social.Facebook),
		Instagram: strings.TrimSpace(social.Instagram),
		LinkedIn:  strings.TrimSpace(social.LinkedIn),
		YouTube:   strings.TrimSpace(social.YouTube),
	}
	if err := validateSocial(social); err != nil {
		return CompanyInfo{}, err
	}
	return s.patch(ctx, "social", func(info *CompanyInfo) { info.Social = social })
}

func (s *companyService) ReplaceServices(ctx context.Context, services []string) (CompanyInfo, error) {
	cleaned := nonNilStrings(textutil.StripMarkupSlice(services))
	return s.patch(ctx, "services", func(info *CompanyInfo) { info.Services = cleaned })
}

func (s *companyService) patch(ctx context.Context, section string, apply func(*CompanyInfo)) (CompanyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.Get(ctx)
	if err != nil {
		return CompanyInfo{}, err
	}
	apply(&info)
	if err := s.save(ctx, info, section); err != nil {
		return CompanyInfo{}, err
	}
	return info, nil
}

func (s *companyService) save(ctx context.Context, info CompanyInfo, section string) error {
	if err := s.repo.Save(ctx, info); err != nil {
		return fmt.Errorf("%w: %v", ErrCompanyUnavailable, err)
	}
	s.logger(ctx, "company.updated", map[string]any{"section": section})
	return nil
}

func sanitizeCompany(info CompanyInfo) CompanyInfo {
	return CompanyInfo{
		Name:        textutil.StripMarkup(info.Name),
		Tagline:     textutil.StripMarkup(info.Tagline),
		Description: textutil.StripMarkup(info.Description),
		About: CompanyAbout{
			History: textutil.StripMarkup(info.About.History),
			Vision:  textutil.StripMarkup(info.About.Vision),
			Values:  nonNilStrings(textutil.StripMarkupSlice(info.About.Values)),
		},
		Contact: CompanyContact{
			Address:  textutil.StripMarkup(info.Contact.Address),
			Phone:    textutil.StripMarkup(info.Contact.Phone),
			Email:    textutil.StripMarkup(info.Contact.Email),
			WhatsApp: textutil.StripMarkup(info.Contact.WhatsApp),
			Hours:    textutil.StripMarkup(info.Contact.Hours),
		},
		Social: CompanySocial{
			Facebook:  strings.TrimSpace(info.Social.Facebook),
			Instagram: strings.TrimSpace(info.Social.Instagram),
			LinkedIn:  strings.TrimSpace(info.Social.LinkedIn),
			YouTube:   strings.TrimSpace(info.Social.YouTube),
		},
		Services: nonNilStrings(textutil.StripMarkupSlice(info.Services)),
	}
}

func validateSocial(social CompanySocial) error {
	links := map[string]string{
		"facebook":  social.Facebook,
		"instagram": social.Instagram,
		"linkedin":  social.LinkedIn,
		"youtube":   social.YouTube,
	}
	for name, link := range links {
		if link == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s must be an http(s) url", ErrCompanyInvalidInput, name)
		}
	}
	return nil
}
