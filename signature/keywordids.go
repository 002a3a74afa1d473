package signature

// KeywordID identifies a registered keyword. Each registry entry (package
// keywords) carries one of these fixed ids; the builder needs to
// recognize a handful of them structurally (content, pcre, and the
// content-modifiers), so they're declared here as the shared vocabulary
// both packages import, avoiding a dependency cycle between keywords and
// signature.
type KeywordID = uint16

const (
	KwUnknown KeywordID = iota
	KwMsg
	KwSid
	KwGid
	KwRev
	KwPriority
	KwClasstype
	KwReference
	KwRequires
	KwContent
	KwNocase
	KwRawbytes
	KwWithin
	KwDistance
	KwDepth
	KwOffset
	KwReplace
	KwPCRE
	KwFileData
	KwHTTPURI
	KwHTTPMethod
	KwFlow
	KwDsize
	KwStreamSize
	KwThreshold
	KwPktData
	KwBsize
	KwIsdataat
	KwFlowbits
	KwFilename
	KwFilestore
	// kwCount is not a real keyword; it marks the end of the built-in
	// range so a table-driven test can iterate 1..kwCount-1.
	kwCount
)
