package ollama

const maxSnippet = 8000

func snippet(text string) string {
	if len(text) > maxSnippet {
		return text[:maxSnippet]
	}
	return text
}

func buildClassificationPrompt(text string) string {
	return `You are a commercial real estate document classifier.
Return a strict JSON object with keys:
type (one of: base_lease, amendment, sublease, assignment, estoppel, snda, other),
confidence (number from 0 to 1),
reasoning (one short sentence),
key_indicators (array of short phrases from the document that drove the decision).
No markdown, no extra keys.

Document:
` + snippet(text)
}

func buildLeasePrompt(text string) string {
	return `You extract structured data from a commercial base lease.
Return a strict JSON object with keys:
tenant {legal_name, entity_type}, landlord {legal_name, entity_type},
property_address {street, city, state, zip_code},
rentable_square_feet (number), usable_square_feet (number),
commencement_date (YYYY-MM-DD), expiration_date (YYYY-MM-DD),
base_rent_monthly, base_rent_annual, rent_per_sqft, security_deposit (money strings like "$10,000.00"),
escalations (array of {type: fixed_percentage|fixed_amount|cpi, effective_date, percentage, fixed_amount, frequency_months}),
cam {base_year, base_amount, tenant_share_percent, annual_cap_percent, description},
missing_fields (array of field names you could not find).
Use empty string or 0 for anything the document does not state. Never guess.
No markdown, no extra keys.

Document:
` + snippet(text)
}

func buildAmendmentPrompt(text string) string {
	return `You extract structured data from a commercial lease amendment.
Return a strict JSON object with keys:
target_lease_id (identifier of the lease being amended, as stated),
supersedes_id (identifier of a prior amendment this one supersedes, or empty),
effective_date (YYYY-MM-DD), execution_date (YYYY-MM-DD),
changes (object keyed by field name: tenant, landlord, property_address,
base_rent_monthly, base_rent_annual, rent_per_sqft, security_deposit,
commencement_date, expiration_date, rentable_square_feet, usable_square_feet,
escalation_schedule, cam_terms; each value is {prior, new}).
In changes, "new" is the replacement value and "prior" is the value the text
claims was previously in force. If the amendment only restates a prior value
without replacing it, set "new" to an empty string.
Also return missing_fields (array of field names you could not find).
Use empty string for anything the document does not state. Never guess.
No markdown, no extra keys.

Document:
` + snippet(text)
}
