package domain

// DefaultCompanyInfo returns the company profile served before an administrator saves one.
func DefaultCompanyInfo() CompanyInfo {
	return CompanyInfo{
		Name:        "Komercia SAS",
		Tagline:     "Comodidad y elegancia para tu espacio de trabajo",
		Description: "Somos líderes en la venta de sillas de oficina de alta calidad en Colombia. Con más de 15 años de experiencia, ofrecemos soluciones ergonómicas que combinan diseño, comodidad y durabilidad.",
		About: CompanyAbout{
			History: "Fundada en 2008, Komercia SAS nació con la visión de transformar los espacios de trabajo colombianos. Comenzamos como una pequeña empresa familiar y hoy somos reconocidos como líderes en el sector de mobiliario de oficina.",
			Vision:  "Ser la empresa líder en Colombia en soluciones ergonómicas para oficina, contribuyendo al bienestar y productividad de nuestros clientes.",
			Values: []string{
				"Calidad: Productos que superan las expectativas",
				"Innovación: Siempre a la vanguardia del diseño",
				"Servicio: Atención personalizada y profesional",
				"Compromiso: Con la salud y bienestar de nuestros clientes",
			},
		},
		Contact: CompanyContact{
			Address:  "Av. Empresarial #123, Bogotá, Colombia",
			Phone:    "+57 (1) 234-5678",
			Email:    "info@sillasoffice.com",
			WhatsApp: "+57 300 123 4567",
			Hours:    "Lunes a Viernes: 8:00 AM - 6:00 PM\nSábados: 9:00 AM - 4:00 PM",
		},
		Social: CompanySocial{
			Facebook:  "https://facebook.com/sillasoffice",
			Instagram: "https://instagram.com/sillasoffice",
			LinkedIn:  "https://linkedin.com/company/sillasoffice",
			YouTube:   "https://youtube.com/sillasoffice",
		},
		Services: []string{
			"Asesoría ergonómica personalizada",
			"Entrega gratuita en Bogotá",
			"Instalación y montaje",
			"Garantía extendida",
			"Servicio postventa especializado",
			"Planes de financiación",
		},
	}
}
