package common

// Campus is a university users can belong to.
type Campus struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Category is a listing category shown in the explore tab.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var Campuses = []Campus{
	{ID: "ui", Name: "UI", Logo: "https://upload.wikimedia.org/wikipedia/commons/thumb/0/0d/Makara_UI_color.svg/1200px-Makara_UI_color.svg.png"},
	{ID: "itb", Name: "ITB", Logo: "https://upload.wikimedia.org/wikipedia/id/thumb/9/95/Logo_ITB_%28Institut_Teknologi_Bandung%29.svg/1200px-Logo_ITB_%28Institut_Teknologi_Bandung%29.svg.png"},
	{ID: "ugm", Name: "UGM", Logo: "https://upload.wikimedia.org/wikipedia/en/thumb/2/2e/Gadjah_Mada_University_Emblem.png/220px-Gadjah_Mada_University_Emblem.png"},
	{ID: "binus", Name: "Binus", Logo: "https://upload.wikimedia.org/wikipedia/en/thumb/6/6f/Binus_University_Logo.svg/1200px-Binus_University_Logo.svg.png"},
	{ID: "unpad", Name: "Unpad", Logo: "https://upload.wikimedia.org/wikipedia/commons/thumb/c/c8/Logo_Unpad.svg/1200px-Logo_Unpad.svg.png"},
}

var Categories = []Category{
	{ID: "books", Label: "Buku"},
	{ID: "electronics", Label: "Elektronik"},
	{ID: "creative", Label: "Jasa Kreatif"},
	{ID: "food", Label: "Kuliner"},
	{ID: "fashion", Label: "Fashion"},
	{ID: "tutor", Label: "Tutor"},
	{ID: "tools", Label: "Alat"},
	{ID: "others", Label: "Lainnya"},
}

// LookupCategory finds a category by id.
func LookupCategory(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// LookupCampus finds a campus by id.
func LookupCampus(id string) (Campus, bool) {
	for _, c := range Campuses {
		if c.ID == id {
			return c, true
		}
	}
	return Campus{}, false
}
