package model

// Category groups products for reporting. Inactive categories are dropped from
// aggregation joins but stay referenceable from products and history.
type Category struct {
	BaseModel
	Name   string `gorm:"type:varchar(255);not null" json:"name"`
	Active bool   `gorm:"not null;index" json:"active"`
}

func (Category) TableName() string {
	return "categories"
}
