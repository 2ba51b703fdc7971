package domain

// Stuff is a purchasable inventory item priced per kilogram.
type Stuff struct {
	ID           string  `json:"id"`
	StuffName    string  `json:"stuffName"`
	Weight       float64 `json:"weight"`
	BuyingPrice  int64   `json:"buyingPrice"`
	SellingPrice int64   `json:"sellingPrice"`
	Status       bool    `json:"status"`
	Image        *Image  `json:"image,omitempty"`
}

// Image is a backend-hosted picture.
type Image struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

// ImageURL returns the image URL or "" when the stuff has none.
func (s Stuff) ImageURL() string {
	if s.Image == nil {
		return ""
	}
	return s.Image.URL
}

// StuffInput is sent as the "stuff" JSON part of a multipart request.
type StuffInput struct {
	ID           string `json:"id,omitempty"`
	StuffName    string `json:"stuffName" validate:"required,min=4"`
	BuyingPrice  int64  `json:"buyingPrice" validate:"required,gt=0"`
	SellingPrice int64  `json:"sellingPrice" validate:"required,gt=0"`
}

// Upload is a file received from a form and forwarded to the backend.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
