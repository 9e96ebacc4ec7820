// Package domain models district-level Aadhaar enrolment statistics and the
// policy simulator applied to them.
//
// # Data Source
//
// Records come from a static CSV exported by the analysis notebook
// ("aadhaar_dashboard_data.csv"). Each row describes one district of one
// state or union territory. The loader decodes every column as a string into
// [RawDistrictRecord] and [ParseDistrict] converts it into a [District].
//
// # Column Conventions
//
//	state               region name, free text with historical spellings
//	district            district name
//	assi                stress index: update requests per enrolment
//	Priority            "CRITICAL", "High" or "Normal"
//	security_status     "Normal" or an alert label such as
//	                    "Sentinel Alert: Audit Required"
//	future_mbu_demand   forecast mandatory biometric updates (children turning 5)
//	Preparedness_Index  readiness score, 0–100
//	District_Playbook   recommended action ("official order")
//	assi_acceleration   change in stress, radar x-axis (optional)
//	age_18_greater      adult enrolments, radar y-axis (optional)
//	district_type       stress zone label (optional)
//
// Numeric columns are parsed leniently: empty or malformed values become 0.
//
// # Region Normalisation
//
// Region names are trimmed, title-cased and then remapped through a
// correction table, e.g. "orissa " → "Orissa" → "Odisha". See [RegionNormalizer].
//
// # Policy Simulator
//
// Two mutually exclusive scenarios rescale the stress index of the current
// view:
//
//	stress test:  stress' = stress × multiplier,           multiplier ∈ [1, 5]
//	relief:       impact  = min(0.02·kits + 0.01·staff, 0.90)
//	              stress' = max(stress × (1 − impact), 0.1)
//
// A district whose stress exceeds the collapse threshold (5.0) after a stress
// test has "collapsed". All constants live in [Policy].
package domain
