package blob

import domain "github.com/komercia/storefront/internal/domain"

type productDocument struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	Category         string   `json:"category"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
	Features         []string `json:"features"`
	Images           []string `json:"images"`
	InStock          bool     `json:"inStock"`
}

type companyDocument struct {
	Name        string                 `json:"name"`
	Tagline     string                 `json:"tagline"`
	Description string                 `json:"description"`
	About       companyAboutDocument   `json:"about"`
	Contact     companyContactDocument `json:"contact"`
	Social      companySocialDocument  `json:"social"`
	Services    []string               `json:"services"`
}

type companyAboutDocument struct {
	History string   `json:"history"`
	Vision  string   `json:"vision"`
	Values  []string `json:"values"`
}

type companyContactDocument struct {
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	Hours    string `json:"hours"`
}

type companySocialDocument struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	YouTube   string `json:"youtube"`
}

func toProductDocument(p domain.Product) productDocument {
	return productDocument{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		Category:         p.Category,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Features:         nonNil(p.Features),
		Images:           nonNil(p.Images),
		InStock:          p.InStock,
	}
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:               d.ID,
		Name:             d.Name,
		Price:            d.Price,
		Category:         d.Category,
		ShortDescription: d.ShortDescription,
		LongDescription:  d.LongDescription,
		Features:         nonNil(d.Features),
		Images:           nonNil(d.Images),
		InStock:          d.InStock,
	}
}

func toCompanyDocument(info domain.CompanyInfo) companyDocument {
	return companyDocument{
		Name:        info.Name,
		Tagline:     info.Tagline,
		Description: info.Description,
		About: companyAboutDocument{
			History: info.About.History,
			Vision:  info.About.Vision,
			Values:  nonNil(info.About.Values),
		},
		Contact:  companyContactDocument(info.Contact),
		Social:   companySocialDocument(info.Social),
		Services: nonNil(info.Services),
	}
}

func (d companyDocument) toDomain() domain.CompanyInfo {
	return domain.CompanyInfo{
		Name:        d.Name,
		Tagline:     d.Tagline,
		Description: d.Description,
		About: domain.CompanyAbout{
			History: d.About.History,
			Vision:  d.About.Vision,
			Values:  nonNil(d.About.Values),
		},
		Contact:  domain.CompanyContact(d.Contact),
		Social:   domain.CompanySocial(d.Social),
		Services: nonNil(d.Services),
	}
}

func nonNil(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
