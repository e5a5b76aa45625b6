package ratesource

import (
	"github.com/warp/charge-rate-engine/generic"
)

// =============================================================================
// BUILT-IN FALLBACK RATES
// =============================================================================
//
// Hourly apprentice rates published under the annual wage reviews, keyed by
// financial year (FY2024 = 1 July 2024 - 30 June 2025, effective 2025).
// Extend with LoadTables rather than editing call sites.

const (
	AwardElectrical    = "MA000025" // Electrical, Electronic and Communications Contracting
	AwardBuilding      = "MA000020" // Building and Construction General On-site
	AwardPlumbing      = "MA000036" // Plumbing and Fire Sprinklers
	AwardManufacturing = "MA000010" // Manufacturing and Associated Industries
	AwardHairBeauty    = "MA000005" // Hair and Beauty Industry
)

func row(award string, fy int, level int, classification, rate string) Row {
	return Row{
		AwardCode:      award,
		FinancialYear:  generic.FinancialYear(fy),
		YearLevel:      level,
		Classification: classification,
		HourlyRate:     generic.MustParseDecimal(rate),
	}
}

func sectorRow(award string, fy int, sector string, level int, rate string) Row {
	r := row(award, fy, level, "Apprentice "+sector, rate)
	r.Sector = sector
	return r
}

func calendarRow(award string, cy int, level int, rate string) CalendarRow {
	return CalendarRow{
		AwardCode:      award,
		CalendarYear:   generic.CalendarYear(cy),
		YearLevel:      level,
		Classification: "Apprentice",
		HourlyRate:     generic.MustParseDecimal(rate),
	}
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() *Tables {
	return &Tables{
		Adult: []Row{
			row(AwardElectrical, 2024, 1, "Adult apprentice 1st year", "26.48"),
			row(AwardElectrical, 2024, 2, "Adult apprentice 2nd year", "27.30"),
			row(AwardElectrical, 2024, 3, "Adult apprentice 3rd year", "28.13"),
			row(AwardElectrical, 2024, 4, "Adult apprentice 4th year", "28.96"),
			row(AwardBuilding, 2024, 1, "Adult apprentice 1st year", "27.02"),
			row(AwardBuilding, 2024, 2, "Adult apprentice 2nd year", "27.76"),
			row(AwardBuilding, 2024, 3, "Adult apprentice 3rd year", "28.55"),
			row(AwardBuilding, 2024, 4, "Adult apprentice 4th year", "29.38"),
		},

		Year12: []Row{
			row(AwardElectrical, 2024, 1, "Apprentice 1st year (Year 12)", "17.42"),
			row(AwardElectrical, 2024, 2, "Apprentice 2nd year (Year 12)", "20.40"),
			row(AwardElectrical, 2024, 3, "Apprentice 3rd year (Year 12)", "24.53"),
			row(AwardElectrical, 2024, 4, "Apprentice 4th year (Year 12)", "27.49"),
			row(AwardBuilding, 2024, 1, "Apprentice 1st year (Year 12)", "18.20"),
			row(AwardBuilding, 2024, 2, "Apprentice 2nd year (Year 12)", "22.25"),
			row(AwardBuilding, 2024, 3, "Apprentice 3rd year (Year 12)", "25.31"),
			row(AwardBuilding, 2024, 4, "Apprentice 4th year (Year 12)", "28.92"),
		},

		Sector: []Row{
			sectorRow(AwardBuilding, 2024, "residential", 1, "17.10"),
			sectorRow(AwardBuilding, 2024, "residential", 2, "21.32"),
			sectorRow(AwardBuilding, 2024, "residential", 3, "24.94"),
			sectorRow(AwardBuilding, 2024, "residential", 4, "28.49"),
			sectorRow(AwardBuilding, 2024, "commercial", 1, "17.61"),
			sectorRow(AwardBuilding, 2024, "commercial", 2, "21.95"),
			sectorRow(AwardBuilding, 2024, "commercial", 3, "25.67"),
			sectorRow(AwardBuilding, 2024, "commercial", 4, "29.33"),
			sectorRow(AwardBuilding, 2024, "civil", 1, "17.89"),
			sectorRow(AwardBuilding, 2024, "civil", 2, "22.10"),
		},

		FinancialYear: []Row{
			row(AwardElectrical, 2023, 1, "Apprentice 1st year", "15.85"),
			row(AwardElectrical, 2023, 2, "Apprentice 2nd year", "18.74"),
			row(AwardElectrical, 2023, 3, "Apprentice 3rd year", "23.67"),
			row(AwardElectrical, 2023, 4, "Apprentice 4th year", "26.53"),
			row(AwardElectrical, 2024, 1, "Apprentice 1st year", "16.42"),
			row(AwardElectrical, 2024, 2, "Apprentice 2nd year", "19.42"),
			row(AwardElectrical, 2024, 3, "Apprentice 3rd year", "24.53"),
			row(AwardElectrical, 2024, 4, "Apprentice 4th year", "27.49"),

			row(AwardBuilding, 2023, 1, "Apprentice 1st year", "16.75"),
			row(AwardBuilding, 2023, 2, "Apprentice 2nd year", "20.88"),
			row(AwardBuilding, 2023, 3, "Apprentice 3rd year", "24.42"),
			row(AwardBuilding, 2023, 4, "Apprentice 4th year", "27.91"),
			row(AwardBuilding, 2024, 1, "Apprentice 1st year", "17.36"),
			row(AwardBuilding, 2024, 2, "Apprentice 2nd year", "21.64"),
			row(AwardBuilding, 2024, 3, "Apprentice 3rd year", "25.31"),
			row(AwardBuilding, 2024, 4, "Apprentice 4th year", "28.92"),

			row(AwardPlumbing, 2023, 1, "Apprentice 1st year", "16.30"),
			row(AwardPlumbing, 2023, 2, "Apprentice 2nd year", "20.13"),
			row(AwardPlumbing, 2023, 3, "Apprentice 3rd year", "23.75"),
			row(AwardPlumbing, 2023, 4, "Apprentice 4th year", "27.09"),
			row(AwardPlumbing, 2024, 1, "Apprentice 1st year", "16.89"),
			row(AwardPlumbing, 2024, 2, "Apprentice 2nd year", "20.86"),
			row(AwardPlumbing, 2024, 3, "Apprentice 3rd year", "24.61"),
			row(AwardPlumbing, 2024, 4, "Apprentice 4th year", "28.07"),

			row(AwardManufacturing, 2023, 1, "Apprentice 1st year", "14.53"),
			row(AwardManufacturing, 2023, 2, "Apprentice 2nd year", "18.41"),
			row(AwardManufacturing, 2023, 3, "Apprentice 3rd year", "22.28"),
			row(AwardManufacturing, 2023, 4, "Apprentice 4th year", "26.17"),
			row(AwardManufacturing, 2024, 1, "Apprentice 1st year", "15.06"),
			row(AwardManufacturing, 2024, 2, "Apprentice 2nd year", "19.08"),
			row(AwardManufacturing, 2024, 3, "Apprentice 3rd year", "23.09"),
			row(AwardManufacturing, 2024, 4, "Apprentice 4th year", "27.12"),
		},

		CalendarYear: []CalendarRow{
			calendarRow(AwardElectrical, 2022, 1, "15.12"),
			calendarRow(AwardElectrical, 2022, 2, "17.88"),
			calendarRow(AwardElectrical, 2022, 3, "22.58"),
			calendarRow(AwardElectrical, 2022, 4, "25.31"),
			calendarRow(AwardElectrical, 2023, 1, "15.31"),
			calendarRow(AwardElectrical, 2023, 2, "18.10"),
			calendarRow(AwardElectrical, 2023, 3, "22.86"),
			calendarRow(AwardElectrical, 2023, 4, "25.62"),

			calendarRow(AwardHairBeauty, 2024, 1, "13.93"),
			calendarRow(AwardHairBeauty, 2024, 2, "16.48"),
			calendarRow(AwardHairBeauty, 2024, 3, "19.40"),
			calendarRow(AwardHairBeauty, 2024, 4, "21.87"),

			calendarRow(AwardManufacturing, 2022, 1, "13.70"),
			calendarRow(AwardManufacturing, 2022, 2, "17.36"),
			calendarRow(AwardManufacturing, 2022, 3, "21.01"),
			calendarRow(AwardManufacturing, 2022, 4, "24.67"),
		},
	}
}
