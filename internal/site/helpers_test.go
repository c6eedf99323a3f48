package site

import "github.com/inmodata/inmoharvest/internal/model"

func propertyWithLink(link string) model.Property {
	return model.Property{Operator: "test", Name: "Edificio", Link: link}
}
