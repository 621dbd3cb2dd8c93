package catalog

// Category names used by the clinic's report layout.
const (
	Biochemistry  = "BIOCHEMISTRY"
	RenalFunction = "RENAL FUNCTION"
	LipidProfile  = "LIPID PROFILE"
	LiverFunction = "LIVER FUNCTION"
	Electrolytes  = "ELECTROLYTES"
	OtherTests    = "OTHER TESTS"
	Haematology   = "HAEMATOLOGY"
	Serology      = "SEROLOGY"
)

// Default returns the clinic's standard catalog.
func Default() *Catalog {
	return MustNew(DefaultDefinition())
}

// DefaultDefinition returns a fresh copy of the standard test table.
func DefaultDefinition() Definition {
	return Definition{
		Categories: []Category{
			{Name: Biochemistry, Tests: []string{
				"Glucose (F)/RI", "Post Prandial / after 2 Hrs", "HbA1c",
			}},
			{Name: RenalFunction, Tests: []string{
				"Urea", "Creatinine", "S. Uric Acid", "BUN",
			}},
			{Name: LipidProfile, Tests: []string{
				"Cholesterol", "Triglyceride", "HDL", "LDL",
			}},
			{Name: LiverFunction, Tests: []string{
				"Bilirubin Total", "Bilirubin (Conjugated)", "Bilirubin (Unconjugated)",
				"SGOT/AST", "SGPT/ALT", "Alk. Phosphatase", "Total Protein",
				"Albumin", "Globulin", "A/G Ratio", "GGT",
			}},
			{Name: Electrolytes, Tests: []string{
				"S. Calcium", "S. Sodium", "S. Potassium",
			}},
			{Name: OtherTests, Tests: []string{
				"Urine Protein (24 Hrs)", "Urine micro protein (albumin)",
				"CK-MB", "S. Phosphorous", "S. Amylase", "TROP-T",
			}},
			{Name: Haematology, Tests: []string{
				"Haemoglobin", "Total leukocyte count", "Differential WBC count - Polymorphs",
				"Differential WBC count - Lymphocytes", "Differential WBC count - Eosinophils",
				"Differential WBC count - Monocytes", "Differential WBC count - Basophiles",
				"AEC", "E.S.R. (Westergren)", "Platelet Count", "RBC Count",
				"Reticulocyte count", "Haematocrit/PCV", "MCV", "MCH", "MCHC",
				"Malaria Parasite", "BLOOD GROUP", "Bleeding Time", "Clotting Time",
				"Prothrombin Time", "PERIPHERAL BLOOD SMEAR - RBC",
				"PERIPHERAL BLOOD SMEAR - WBC", "PERIPHERAL BLOOD SMEAR - PLATELET",
				"PERIPHERAL BLOOD SMEAR - HAEMOPARASITE",
			}},
			{Name: Serology, Tests: []string{
				"HbsAg", "HIV (1+2)", "HCV", "VDRL", "ASO Titer", "R.A. factor",
				"CRP", "Gravindex (PREGNANCY)", "WIDAL TEST - S. Typhi, 'O'",
				"WIDAL TEST - S. Typhi, 'H'", "WIDAL TEST - S. Paratyphi, 'AH'",
				"WIDAL TEST - S. Paratyphi, 'BH'", "Dengue NS1", "Typhi Dot",
			}},
		},
		Ranges: map[string]string{
			"Glucose (F)/RI":                         "70-110 mg/dl",
			"Post Prandial / after 2 Hrs":            "Up to 140 mg/dl",
			"HbA1c":                                  "4.5-6.5 %",
			"Urea":                                   "10-40 mg/dl",
			"Creatinine":                             "0.6-1.4 mg/dl",
			"S. Uric Acid":                           "2.8-7.0 mg/dl",
			"BUN":                                    "5-20 mg/dl",
			"Cholesterol":                            "150-200 mg/dl",
			"Triglyceride":                           "0-170 mg/dl",
			"HDL":                                    "30-96 (F)/30-70 (M) mg/dl",
			"LDL":                                    "<100 mg/dl",
			"Bilirubin Total":                        "0.1-1.2 mg/dl",
			"Bilirubin (Conjugated)":                 "0.0-0.3 mg/dl",
			"Bilirubin (Unconjugated)":               "0.1-1.0 mg/dl",
			"SGOT/AST":                               "0-35 U/L",
			"SGPT/ALT":                               "0-40 U/L",
			"Alk. Phosphatase":                       "175-575 U/L",
			"Total Protein":                          "6.5-8.0 gm/dl",
			"Albumin":                                "3.5-5.0 gm/dl",
			"Globulin":                               "2.3-3.5 gm/dl",
			"A/G Ratio":                              "1.0-2.5",
			"GGT":                                    "8-60 U/L",
			"S. Calcium":                             "8.8-11.0 mg/dl",
			"S. Sodium":                              "138-148 meq/l",
			"S. Potassium":                           "3.8-4.8 meq/l",
			"Urine Protein (24 Hrs)":                 "24-120 mg/24 Hrs",
			"Urine micro protein (albumin)":          "28-150 mg/24 Hrs",
			"CK-MB":                                  "0-24 U/L",
			"S. Phosphorous":                         "2.7-4.5 mg/dl",
			"S. Amylase":                             "0-110 U/L",
			"TROP-T":                                 "Negative",
			"Haemoglobin":                            "14-18 gm% (M)/12-15 gm% (F)",
			"Total leukocyte count":                  "4000-10,000/cu mm",
			"Differential WBC count - Polymorphs":    "40-75%",
			"Differential WBC count - Lymphocytes":   "20-45%",
			"Differential WBC count - Eosinophils":   "1-6%",
			"Differential WBC count - Monocytes":     "0-10%",
			"Differential WBC count - Basophiles":    "0-1%",
			"AEC":                                    "40-500 No/cu mm",
			"E.S.R. (Westergren)":                    "0-12 mm (F), 0-10 mm (M)",
			"Platelet Count":                         "1.5-4.5 lac/cu mm",
			"RBC Count":                              "F=3.5-5.0, M=4.2-5.5 million/cu mm",
			"Reticulocyte count":                     "2-5% of RBC",
			"Haematocrit/PCV":                        "M=39-49%, F=33-43%",
			"MCV":                                    "76-100 fl",
			"MCH":                                    "29.5 ± 2.5 pg",
			"MCHC":                                   "32.5 ± 2.5 gm/dl",
			"Malaria Parasite":                       "Negative",
			"BLOOD GROUP":                            "Rh = Positive/Negative",
			"Bleeding Time":                          "2-7 Min.",
			"Clotting Time":                          "6 Min.",
			"Prothrombin Time":                       "10-14 Sec.",
			"PERIPHERAL BLOOD SMEAR - RBC":           "Normal morphology",
			"PERIPHERAL BLOOD SMEAR - WBC":           "Normal morphology",
			"PERIPHERAL BLOOD SMEAR - PLATELET":      "Adequate",
			"PERIPHERAL BLOOD SMEAR - HAEMOPARASITE": "Negative",
			"HbsAg":                                  "Negative",
			"HIV (1+2)":                              "Negative",
			"HCV":                                    "Negative",
			"VDRL":                                   "Non-reactive",
			"ASO Titer":                              "<200 IU/ml",
			"R.A. factor":                            "<20 IU/ml",
			"CRP":                                    "<6 mg/L",
			"Gravindex (PREGNANCY)":                  "Negative",
			"WIDAL TEST - S. Typhi, 'O'":             "Negative (<1:80)",
			"WIDAL TEST - S. Typhi, 'H'":             "Negative (<1:160)",
			"WIDAL TEST - S. Paratyphi, 'AH'":        "Negative (<1:80)",
			"WIDAL TEST - S. Paratyphi, 'BH'":        "Negative (<1:80)",
			"Dengue NS1":                             "Negative",
			"Typhi Dot":                              "Negative",
		},
		Limits: map[string]Limits{
			"Glucose (F)/RI": {Min: 70, Max: 110},
			"HbA1c":          {Min: 4.5, Max: 6.5},
			"Urea":           {Min: 10, Max: 40},
			"Creatinine":     {Min: 0.6, Max: 1.4},
		},
	}
}
