package ast

// Kind tags a node with the grammar construct it represents.
type Kind uint8

// Node kinds. Anonymous grammar tokens ("let", "=", "...") are KindToken and
// keep their literal text in Node.Type.
const (
	KindInvalid Kind = iota
	KindToken
	KindOther
	KindError
	KindComment

	KindProgram
	KindExpressionStatement
	KindVariableDeclaration
	KindLexicalDeclaration
	KindVariableDeclarator
	KindStatementBlock
	KindForStatement
	KindForInStatement
	KindDoStatement
	KindSwitchBody
	KindCatchClause
	KindReturnStatement

	KindIdentifier
	KindPropertyIdentifier
	KindShorthandPropertyIdentifier
	KindShorthandPropertyIdentifierPattern
	KindPrivatePropertyIdentifier
	KindThis
	KindSuper
	KindString
	KindParenthesizedExpression

	KindObject
	KindArray
	KindPair
	KindSpreadElement
	KindComputedPropertyName

	KindClassDeclaration
	KindClass
	KindClassHeritage
	KindClassBody
	KindClassStaticBlock
	KindMethodDefinition
	KindFieldDefinition

	KindFunctionDeclaration
	KindFunctionExpression
	KindGeneratorFunctionDeclaration
	KindGeneratorFunction
	KindArrowFunction
	KindFormalParameters

	KindObjectPattern
	KindArrayPattern
	KindPairPattern
	KindObjectAssignmentPattern
	KindAssignmentPattern
	KindRestPattern

	KindCallExpression
	KindNewExpression
	KindArguments
	KindMemberExpression
	KindSubscriptExpression
	KindAssignmentExpression
	KindAugmentedAssignmentExpression
	KindUnaryExpression
	KindUpdateExpression
	KindAwaitExpression
	KindYieldExpression
	KindBinaryExpression

	KindTemplateString
	KindTemplateSubstitution

	KindImportStatement
	KindImportClause
	KindNamespaceImport
	KindNamedImports
	KindImportSpecifier
	KindExportStatement
	KindExportClause
	KindExportSpecifier
	KindNamespaceExport
)

var kindByType = map[string]Kind{
	"ERROR":   KindError,
	"comment": KindComment,

	"program":              KindProgram,
	"expression_statement": KindExpressionStatement,
	"variable_declaration": KindVariableDeclaration,
	"lexical_declaration":  KindLexicalDeclaration,
	"variable_declarator":  KindVariableDeclarator,
	"statement_block":      KindStatementBlock,
	"for_statement":        KindForStatement,
	"for_in_statement":     KindForInStatement,
	"do_statement":         KindDoStatement,
	"switch_body":          KindSwitchBody,
	"catch_clause":         KindCatchClause,
	"return_statement":     KindReturnStatement,

	"identifier":                           KindIdentifier,
	"property_identifier":                  KindPropertyIdentifier,
	"shorthand_property_identifier":        KindShorthandPropertyIdentifier,
	"shorthand_property_identifier_pattern": KindShorthandPropertyIdentifierPattern,
	"private_property_identifier":          KindPrivatePropertyIdentifier,
	"this":                                 KindThis,
	"super":                                KindSuper,
	"string":                               KindString,
	"parenthesized_expression":             KindParenthesizedExpression,

	"object":                 KindObject,
	"array":                  KindArray,
	"pair":                   KindPair,
	"spread_element":         KindSpreadElement,
	"computed_property_name": KindComputedPropertyName,

	"class_declaration":  KindClassDeclaration,
	"class":              KindClass,
	"class_heritage":     KindClassHeritage,
	"class_body":         KindClassBody,
	"class_static_block": KindClassStaticBlock,
	"method_definition":  KindMethodDefinition,
	"field_definition":   KindFieldDefinition,

	"function_declaration":           KindFunctionDeclaration,
	"function_expression":            KindFunctionExpression,
	"function":                       KindFunctionExpression,
	"generator_function_declaration": KindGeneratorFunctionDeclaration,
	"generator_function":             KindGeneratorFunction,
	"arrow_function":                 KindArrowFunction,
	"formal_parameters":              KindFormalParameters,

	"object_pattern":            KindObjectPattern,
	"array_pattern":             KindArrayPattern,
	"pair_pattern":              KindPairPattern,
	"object_assignment_pattern": KindObjectAssignmentPattern,
	"assignment_pattern":        KindAssignmentPattern,
	"rest_pattern":              KindRestPattern,

	"call_expression":                  KindCallExpression,
	"new_expression":                   KindNewExpression,
	"arguments":                        KindArguments,
	"member_expression":                KindMemberExpression,
	"subscript_expression":             KindSubscriptExpression,
	"assignment_expression":            KindAssignmentExpression,
	"augmented_assignment_expression":  KindAugmentedAssignmentExpression,
	"unary_expression":                 KindUnaryExpression,
	"update_expression":                KindUpdateExpression,
	"await_expression":                 KindAwaitExpression,
	"yield_expression":                 KindYieldExpression,
	"binary_expression":                KindBinaryExpression,

	"template_string":       KindTemplateString,
	"template_substitution": KindTemplateSubstitution,

	"import_statement": KindImportStatement,
	"import_clause":    KindImportClause,
	"namespace_import": KindNamespaceImport,
	"named_imports":    KindNamedImports,
	"import_specifier": KindImportSpecifier,
	"export_statement": KindExportStatement,
	"export_clause":    KindExportClause,
	"export_specifier": KindExportSpecifier,
	"namespace_export": KindNamespaceExport,
}

// KindOf maps a grammar node type to its Kind.
func KindOf(nodeType string, named bool) Kind {
	if !named {
		return KindToken
	}

	if kind, ok := kindByType[nodeType]; ok {
		return kind
	}

	return KindOther
}

// IsFunction reports whether the kind introduces a function body.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunctionDeclaration, KindFunctionExpression,
		KindGeneratorFunctionDeclaration, KindGeneratorFunction,
		KindArrowFunction, KindMethodDefinition:
		return true
	default:
		return false
	}
}

// IsPattern reports whether the kind is a destructuring pattern.
func (k Kind) IsPattern() bool {
	return k == KindObjectPattern || k == KindArrayPattern
}

// IsClass reports whether the kind is a class declaration or expression.
func (k Kind) IsClass() bool {
	return k == KindClassDeclaration || k == KindClass
}
