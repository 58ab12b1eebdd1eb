// Package domain models European Environment Agency (EEA) water quality
// monitoring data and the transforms that turn it into threshold comparisons.
//
// # Data Source
//
// Monitoring records come from the EEA Waterbase (WISE-SOE) tables, served by
// the DiscoData SQL-over-HTTP endpoint. Each record is one determinand
// measurement at one monitoring site on one sampling date, joined with the
// site's spatial metadata (name, water body, river basin, coordinates).
//
// # WISE Data Conventions
//
// Determinand codes:
//
//	"CAS_7439-92-1" → CAS registry number of the chemical.
//	"EEA_3164-01-5" → EEA-assigned code for aggregates without a CAS number.
//	Both prefixes are stripped and the remainder lowercased during
//	normalization, leaving the bare registry number.
//
// Units:
//
//	Concentrations arrive in a mix of ug/L, mg/L, and constituent-qualified
//	variants such as mg{NO2}/L or mg{P}/L ("milligrams of X per liter").
//	All recognized units convert to micrograms per liter: ug/L passes
//	through, every mg-per-liter variant multiplies by 1000. Anything else
//	(counts, lengths, pH units) is unrecognized and excluded from threshold
//	comparison rather than silently dropped or guessed at.
//
//	A known upstream quirk tags some water samples with "ug/kg", the solids
//	unit. These are relabeled to "ug/L" before conversion, a pass-through
//	rename rather than a density conversion. See [NormalizeRecord].
//
// Missing values:
//
//	The API serves numeric columns as a mix of JSON numbers, numeric
//	strings, empty strings, and nulls. Unparseable observed values and
//	coordinates become nil pointers; unparseable sampling dates become the
//	zero time. Records without coordinates rank at infinite distance and
//	are never chosen while a located station exists.
//
// Deduplication:
//
//	A water body accumulates many samples per contaminant over the years.
//	Only the most recent sample per contaminant is compared against the
//	threshold table; samples without a date always lose. See
//	[DeduplicateLatest].
package domain
