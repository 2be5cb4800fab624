package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadEscape                Code = 1005
	LexBadOctet                 Code = 1006

	// Syntax
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynExpectSemicolon  Code = 2002
	SynExpectIdentifier Code = 2003
	SynExpectExpression Code = 2004
	SynUnclosedParen    Code = 2005
	SynUnclosedBrace    Code = 2006
	SynUnclosedBracket  Code = 2007
	SynInvalidLValue    Code = 2008
	SynBadParameter     Code = 2009
	SynBadClassMember   Code = 2010

	// Compile (SSA construction)
	CmpInfo              Code = 3000
	CmpOutOfScope        Code = 3001
	CmpDuplicateDefault  Code = 3002
	CmpMisplacedBreak    Code = 3003
	CmpMisplacedContinue Code = 3004
	CmpMisplacedCase     Code = 3005
	CmpUndefinedLabel    Code = 3006
	CmpDuplicateLabel    Code = 3007
	CmpBadSuper          Code = 3008
	CmpBadUnnamedExpand  Code = 3009
	CmpLabelAcrossTry    Code = 3010
	CmpConstantFold      Code = 3011
	CmpInternal          Code = 3099

	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	ProjInfo        Code = 5000
	ProjBadManifest Code = 5001
	ProjMissingMain Code = 5002
	ObsInfo         Code = 6000
	ObsTimings      Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Bad number literal",
	LexBadEscape:                "Bad escape sequence",
	LexBadOctet:                 "Bad octet literal",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected semicolon",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynUnclosedParen:            "Unclosed parenthesis",
	SynUnclosedBrace:            "Unclosed brace",
	SynUnclosedBracket:          "Unclosed bracket",
	SynInvalidLValue:            "Invalid assignment target",
	SynBadParameter:             "Bad parameter list",
	SynBadClassMember:           "Bad class member",
	CmpInfo:                     "Compile information",
	CmpOutOfScope:               "Variable used out of its defining scope",
	CmpDuplicateDefault:         "Duplicate default in switch",
	CmpMisplacedBreak:           "Misplaced break",
	CmpMisplacedContinue:        "Misplaced continue",
	CmpMisplacedCase:            "Misplaced case",
	CmpUndefinedLabel:           "Undefined label",
	CmpDuplicateLabel:           "Duplicate label",
	CmpBadSuper:                 "super outside of a class",
	CmpBadUnnamedExpand:         "Unnamed expand without variadic tail",
	CmpLabelAcrossTry:           "Jump across a try boundary",
	CmpConstantFold:             "Constant expression cannot be evaluated",
	CmpInternal:                 "Internal compiler error",
	IOLoadFileError:             "I/O load file error",
	IOCacheError:                "Unit cache error",
	ProjInfo:                    "Project information",
	ProjBadManifest:             "Bad project manifest",
	ProjMissingMain:             "Missing main script",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CMP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
