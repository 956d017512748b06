package handler

// APIV1Prefix is the base path of every versioned endpoint; the rate limiter keys off it too.
const APIV1Prefix = "/api/v1"

// Collection paths, relative to APIV1Prefix. Legal records share the /legal group.
const (
	customersPath  = "/customers"
	productsPath   = "/products"
	legalPath      = "/legal"
	documentsPath  = "/documents"
	casesPath      = "/cases"
	contractsPath  = "/contracts"
	auditsPath     = "/audits"
	compliancePath = "/compliance"
)
