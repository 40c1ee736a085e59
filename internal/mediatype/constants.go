package mediatype

// Well-known media types. They are parsed once at package initialisation;
// a typo here panics at startup rather than at request time.
var (
	Wildcard                  = MustParse("*/*")
	TextPlain                 = MustParse("text/plain")
	TextHTML                  = MustParse("text/html")
	TextXML                   = MustParse("text/xml")
	TextCSS                   = MustParse("text/css")
	TextEventStream           = MustParse("text/event-stream")
	ApplicationJSON           = MustParse("application/json")
	ApplicationXML            = MustParse("application/xml")
	ApplicationXHTMLXML       = MustParse("application/xhtml+xml")
	ApplicationProblemJSON    = MustParse("application/problem+json")
	ApplicationOctetStream    = MustParse("application/octet-stream")
	ApplicationFormURLEncoded = MustParse("application/x-www-form-urlencoded")
	ApplicationJavaScript     = MustParse("application/javascript")
	ApplicationYAML           = MustParse("application/yaml")
	MultipartFormData         = MustParse("multipart/form-data")
)
