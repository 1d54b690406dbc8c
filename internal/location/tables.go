package location

// Country is one entry of the Tourvisor country directory.
type Country struct {
	ID   string
	Name string
}

// Countries returns the built-in Tourvisor country directory. The IDs are
// the ones the search API expects in its country parameter.
func Countries() []Country {
	return []Country{
		{ID: "1", Name: "Египет"},
		{ID: "2", Name: "Таиланд"},
		{ID: "3", Name: "Индия"},
		{ID: "4", Name: "Турция"},
		{ID: "5", Name: "Шри-Ланка"},
		{ID: "8", Name: "Греция"},
		{ID: "9", Name: "ОАЭ"},
		{ID: "11", Name: "Болгария"},
		{ID: "15", Name: "Кипр"},
		{ID: "16", Name: "Вьетнам"},
		{ID: "17", Name: "Испания"},
		{ID: "20", Name: "Мальдивы"},
		{ID: "22", Name: "Индонезия"},
		{ID: "24", Name: "Куба"},
		{ID: "26", Name: "Черногория"},
		{ID: "31", Name: "Доминикана"},
		{ID: "35", Name: "Грузия"},
		{ID: "43", Name: "Мексика"},
		{ID: "47", Name: "Россия"},
		{ID: "78", Name: "Казахстан"},
	}
}

// resortAliases maps well-known resort and city names to the country they
// belong to, keyed by lowercase name.
var resortAliases = map[string]string{
	// ОАЭ
	"эмираты":  "ОАЭ",
	"дубай":    "ОАЭ",
	"абу-даби": "ОАЭ",
	// Турция
	"анталия": "Турция",
	"стамбул": "Турция",
	"кемер":   "Турция",
	"алания":  "Турция",
	// Египет
	"хургада":       "Египет",
	"шарм-эль-шейх": "Египет",
	"шарм":          "Египет",
	// Таиланд
	"пхукет":  "Таиланд",
	"паттайя": "Таиланд",
	"бангкок": "Таиланд",
}

// departureCities maps lowercase departure city names to the Tourvisor
// departure ID. Cities outside this map fall through to the LLM resolver.
var departureCities = map[string]string{
	// Казахстан
	"алматы":           "78",
	"астана":           "78",
	"нур-султан":       "78",
	"шымкент":          "78",
	"караганда":        "78",
	"костанай":         "78",
	"кызылорда":        "78",
	"актау":            "78",
	"атырау":           "78",
	"павлодар":         "78",
	"усть-каменогорск": "78",
	"семей":            "78",
	"тараз":            "78",
	"уральск":          "78",
	"актобе":           "78",
	"казахстан":        "78",
	// Россия
	"москва":          "47",
	"санкт-петербург": "47",
	"спб":             "47",
	"новосибирск":     "47",
	"екатеринбург":    "47",
	"казань":          "47",
	"нижний новгород": "47",
	"челябинск":       "47",
	"омск":            "47",
	"самара":          "47",
	"ростов-на-дону":  "47",
	"уфа":             "47",
	"красноярск":      "47",
	"воронеж":         "47",
	"пермь":           "47",
	"волгоград":       "47",
	"россия":          "47",
}
