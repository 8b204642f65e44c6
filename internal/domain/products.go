package domain

var productGroupNames = map[int]string{
	1:  "Clothing and underwear",
	2:  "Footwear",
	3:  "Tobacco products",
	4:  "Perfumes and eau de toilette",
	5:  "Tyres",
	6:  "Cameras and flashes",
	8:  "Dairy products",
	9:  "Bicycles",
	10: "Medical devices",
	11: "Alcohol",
	12: "Alternative tobacco products",
	13: "Packaged water",
	14: "Fur goods",
	15: "Beer and low-alcohol drinks",
	16: "Nicotine-containing products",
	17: "Dietary supplements",
	19: "Antiseptics",
	20: "Pet food",
	21: "Seafood",
	22: "Non-alcoholic beer",
	23: "Juices and soft drinks",
	25: "Meat products",
	26: "Veterinary medicines",
	27: "Toys",
	28: "Consumer electronics",
	31: "Titanium products",
	32: "Canned food",
	33: "Vegetable oils",
	34: "Optical fibre",
	35: "Cosmetics and household chemicals",
	36: "Printed products",
	37: "Groceries",
	38: "Pharmaceuticals",
	39: "Construction materials",
	40: "Pyrotechnics and fire extinguishers",
	41: "Heating appliances",
	42: "Cables",
	43: "Motor oils",
	44: "Polymer pipes",
	45: "Confectionery",
	48: "Automotive parts",
	50: "Electronic nicotine delivery systems",
	51: "Smartphones and laptops",
}

// ProductGroupName resolves a product group code to its display name.
func ProductGroupName(code int) string {
	if name, ok := productGroupNames[code]; ok {
		return name
	}
	return "Unknown"
}
