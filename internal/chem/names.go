package chem

// commonNames is keyed by the plain Hill formula. Structural isomers share a
// key, so only one name is reported for them.
var commonNames = map[string]string{
	// simple gases
	"H2":  "Hydrogen Gas",
	"O2":  "Oxygen Gas",
	"N2":  "Nitrogen Gas",
	"F2":  "Fluorine Gas",
	"Cl2": "Chlorine Gas",
	"Br2": "Bromine",
	"I2":  "Iodine",
	"O3":  "Ozone",

	// inorganics
	"H2O":  "Water",
	"H2O2": "Hydrogen Peroxide",
	"CO":   "Carbon Monoxide",
	"CO2":  "Carbon Dioxide",
	"H3N":  "Ammonia",
	"NO":   "Nitric Oxide",
	"NO2":  "Nitrogen Dioxide",
	"N2O":  "Nitrous Oxide (Laughing Gas)",
	"O2S":  "Sulfur Dioxide",
	"O3S":  "Sulfur Trioxide",
	"H2S":  "Hydrogen Sulfide",

	// acids
	"HCl":    "Hydrochloric Acid",
	"HF":     "Hydrofluoric Acid",
	"HBr":    "Hydrobromic Acid",
	"HI":     "Hydroiodic Acid",
	"H2O4S":  "Sulfuric Acid",
	"HNO3":   "Nitric Acid",
	"H3O4P":  "Phosphoric Acid",
	"CH2O3":  "Carbonic Acid",
	"C2H4O2": "Acetic Acid (Vinegar)",
	"CH2O2":  "Formic Acid",

	// salts
	"ClNa":   "Sodium Chloride (Table Salt)",
	"HNaO":   "Sodium Hydroxide (Lye)",
	"CNa2O3": "Sodium Carbonate (Soda Ash)",
	"CHNaO3": "Baking Soda",
	"ClK":    "Potassium Chloride",
	"HKO":    "Potassium Hydroxide",
	"CaCl2":  "Calcium Chloride",
	"CCaO3":  "Calcium Carbonate (Chalk)",
	"CaO":    "Quicklime",
	"MgO":    "Magnesium Oxide",
	"Cl2Mg":  "Magnesium Chloride",
	"Fe2O3":  "Iron(III) Oxide (Rust)",
	"CuO4S":  "Copper Sulfate",

	// alkanes
	"CH4":   "Methane",
	"C2H6":  "Ethane",
	"C3H8":  "Propane",
	"C4H10": "Butane",
	"C5H12": "Pentane",
	"C6H14": "Hexane",
	"C8H18": "Octane",

	// alkenes, alkynes, aromatics
	"C2H4":  "Ethylene",
	"C3H6":  "Propylene",
	"C2H2":  "Acetylene",
	"C6H6":  "Benzene",
	"C7H8":  "Toluene",
	"C10H8": "Naphthalene (Mothballs)",

	// alcohols and ethers; C2H6O is also dimethyl ether, C3H8O also propanol
	"CH4O":  "Methanol",
	"C2H6O": "Ethanol",
	"C3H8O": "Isopropanol",

	// halides
	"CH3Cl":  "Methyl Chloride",
	"CH2Cl2": "Dichloromethane",
	"CHCl3":  "Chloroform",
	"CCl4":   "Carbon Tetrachloride",

	// others
	"CHN":       "Hydrogen Cyanide",
	"CH2O":      "Formaldehyde",
	"C3H6O":     "Acetone",
	"C6H12O6":   "Glucose/Fructose",
	"C12H22O11": "Sucrose (Sugar)",
	"CH4N2O":    "Urea",
	"N3Na":      "Sodium Azide",
}

// CommonName looks up formula verbatim. No normalization is applied.
func CommonName(formula string) (string, bool) {
	name, ok := commonNames[formula]
	return name, ok
}
