package domain

// DefaultProducts returns the catalogue served before an administrator saves one.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:               1,
			Name:             "Silla Ejecutiva Premium",
			Price:            899000,
			Category:         "ejecutiva",
			ShortDescription: "Silla ejecutiva de cuero genuino con soporte lumbar avanzado",
			LongDescription:  "Diseñada para ejecutivos que buscan comodidad y elegancia. Fabricada con cuero genuino de alta calidad, cuenta con sistema de soporte lumbar ajustable, reposabrazos acolchados y base de aluminio pulido. Perfecta para largas jornadas de trabajo.",
			Features: []string{
				"Cuero genuino italiano",
				"Soporte lumbar ajustable",
				"Reposabrazos 4D",
				"Base de aluminio",
				"Ruedas silenciosas",
				"Reclinación hasta 135°",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               2,
			Name:             "Silla Ergonómica Pro",
			Price:            649000,
			Category:         "ergonomica",
			ShortDescription: "Silla ergonómica con malla transpirable y ajustes múltiples",
			LongDescription:  "Diseño ergonómico avanzado con respaldo de malla transpirable que se adapta perfectamente a la curvatura de la espalda. Incluye ajustes de altura, profundidad del asiento y tensión del respaldo para máxima personalización.",
			Features: []string{
				"Respaldo de malla transpirable",
				"Asiento con espuma de memoria",
				"Ajuste de profundidad",
				"Reposacabezas ajustable",
				"Certificación ergonómica",
				"Garantía 5 años",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1592078615290-033ee584e267?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1592078615290-033ee584e267?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               3,
			Name:             "Silla Gaming Elite",
			Price:            749000,
			Category:         "gaming",
			ShortDescription: "Silla gaming profesional con iluminación LED y soporte cervical",
			LongDescription:  "Diseñada específicamente para gamers profesionales. Cuenta con iluminación LED personalizable, soporte cervical y lumbar independientes, y materiales resistentes al desgaste para sesiones de juego prolongadas.",
			Features: []string{
				"Iluminación LED RGB",
				"Tapicería anti-desgaste",
				"Soporte cervical independiente",
				"Reclinación 180°",
				"Reposabrazos gaming 4D",
				"Cojines removibles",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               4,
			Name:             "Silla Operativa Básica",
			Price:            299000,
			Category:         "operativa",
			ShortDescription: "Silla operativa económica con ajustes básicos",
			LongDescription:  "Solución práctica y económica para oficinas. Ofrece comodidad básica con ajuste de altura neumático y respaldo ergonómico. Ideal para uso diario en entornos de trabajo estándar.",
			Features: []string{
				"Ajuste de altura neumático",
				"Respaldo ergonómico",
				"Base de nylon resistente",
				"Tapicería lavable",
				"Montaje fácil",
				"Garantía 2 años",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1506439773649-6e0eb8cfb237?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1506439773649-6e0eb8cfb237?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               5,
			Name:             "Silla Directorial Clásica",
			Price:            1299000,
			Category:         "ejecutiva",
			ShortDescription: "Silla directorial de lujo con acabados en madera noble",
			LongDescription:  "Elegancia y distinción para oficinas ejecutivas. Combina cuero premium con detalles en madera noble. Diseño clásico con tecnología moderna para el máximo confort y prestigio.",
			Features: []string{
				"Cuero premium importado",
				"Detalles en madera noble",
				"Mecanismo sincronizado",
				"Reposabrazos de madera",
				"Base cromada premium",
				"Diseño clásico atemporal",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1549497538-303791108f95?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1549497538-303791108f95?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               6,
			Name:             "Silla Ergonómica Mesh",
			Price:            549000,
			Category:         "ergonomica",
			ShortDescription: "Silla completamente en malla con ventilación superior",
			LongDescription:  "Máxima transpirabilidad con diseño completamente en malla. Perfecta para climas cálidos, ofrece soporte ergonómico sin comprometer la ventilación. Ideal para oficinas modernas.",
			Features: []string{
				"100% malla transpirable",
				"Soporte lumbar integrado",
				"Ajustes ergonómicos",
				"Diseño minimalista",
				"Fácil limpieza",
				"Resistente a la humedad",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=600&fit=crop&hue=180",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: false,
		},
		{
			ID:               7,
			Name:             "Silla Gaming RGB Pro",
			Price:            999000,
			Category:         "gaming",
			ShortDescription: "Silla gaming premium con efectos RGB sincronizados",
			LongDescription:  "La experiencia gaming definitiva. Efectos RGB sincronizables con tu setup, audio integrado, y materiales premium. Diseñada para competidores profesionales que buscan la máxima inmersión.",
			Features: []string{
				"RGB sincronizable",
				"Audio integrado 2.1",
				"Vibración táctil",
				"Materiales premium",
				"Conectividad Bluetooth",
				"App de control",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop&hue=270",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               8,
			Name:             "Silla Operativa Comfort",
			Price:            449000,
			Category:         "operativa",
			ShortDescription: "Silla operativa con cojín lumbar y reposabrazos ajustables",
			LongDescription:  "Equilibrio perfecto entre precio y comodidad. Incluye cojín lumbar removible, reposabrazos ajustables y tapicería resistente. Ideal para oficinas que buscan calidad sin excesos.",
			Features: []string{
				"Cojín lumbar removible",
				"Reposabrazos ajustables",
				"Tapicería resistente",
				"Mecanismo basculante",
				"Ruedas para alfombra",
				"Montaje herramientas incluidas",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1506439773649-6e0eb8cfb237?w=800&h=600&fit=crop&hue=30",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1506439773649-6e0eb8cfb237?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               9,
			Name:             "Silla Ejecutiva Modern",
			Price:            799000,
			Category:         "ejecutiva",
			ShortDescription: "Silla ejecutiva de diseño contemporáneo con líneas minimalistas",
			LongDescription:  "Diseño contemporáneo que combina elegancia y funcionalidad. Líneas limpias y minimalistas con tecnología ergonómica avanzada. Perfecta para oficinas modernas que valoran el diseño.",
			Features: []string{
				"Diseño minimalista",
				"Cuero sintético premium",
				"Líneas contemporáneas",
				"Tecnología ergonómica",
				"Base aluminio cepillado",
				"Certificación de calidad",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1549497538-303791108f95?w=800&h=600&fit=crop&hue=200",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1549497538-303791108f95?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
		{
			ID:               10,
			Name:             "Silla Gaming Compact",
			Price:            499000,
			Category:         "gaming",
			ShortDescription: "Silla gaming compacta ideal para espacios reducidos",
			LongDescription:  "Diseño compacto sin sacrificar comodidad. Perfecta para gamers con espacios limitados que no quieren renunciar a las características gaming esenciales. Incluye soporte lumbar y cervical.",
			Features: []string{
				"Diseño compacto",
				"Soporte lumbar gaming",
				"Reposacabezas ajustable",
				"Tapicería gaming",
				"Base compacta estable",
				"Ideal espacios pequeños",
			},
			Images: []string{
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop&hue=120",
				"https://images.unsplash.com/photo-1541558869434-2840d308329a?w=800&h=600&fit=crop",
				"https://images.unsplash.com/photo-1664906225771-ad3c3c585c4d?w=800&h=600&fit=crop&sat=-100",
			},
			InStock: true,
		},
	}
}
