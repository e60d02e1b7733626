package formula

// arity bounds the argument count of a spreadsheet function.
// A Max of -1 means unlimited.
type arity struct {
	Min int
	Max int
}

// knownFunctions maps function names to their argument-count bounds.
var knownFunctions = map[string]arity{
	// Math
	"SUM": {1, -1}, "SUMIF": {2, 3}, "SUMIFS": {3, -1},
	"SUMPRODUCT": {1, -1}, "AVERAGE": {1, -1}, "AVERAGEIF": {2, 3},
	"AVERAGEIFS": {3, -1}, "COUNT": {1, -1}, "COUNTA": {1, -1},
	"COUNTBLANK": {1, 1}, "COUNTIF": {2, 2}, "COUNTIFS": {2, -1},
	"MAX": {1, -1}, "MAXIFS": {3, -1}, "MIN": {1, -1},
	"MINIFS": {3, -1}, "ABS": {1, 1}, "ROUND": {1, 2},
	"ROUNDUP": {2, 2}, "ROUNDDOWN": {2, 2}, "INT": {1, 1},
	"MOD": {2, 2}, "POWER": {2, 2}, "SQRT": {1, 1},
	"PRODUCT": {1, -1}, "MEDIAN": {1, -1}, "LARGE": {2, 2},
	"SMALL": {2, 2}, "RANK": {2, 3}, "PERCENTILE": {2, 2},
	"RAND": {0, 0}, "RANDBETWEEN": {2, 2},

	// Lookup
	"VLOOKUP": {3, 4}, "HLOOKUP": {3, 4}, "INDEX": {2, 3},
	"MATCH": {2, 3}, "XLOOKUP": {3, 6}, "OFFSET": {3, 5},
	"INDIRECT": {1, 2}, "ROW": {0, 1}, "COLUMN": {0, 1},
	"ROWS": {1, 1}, "COLUMNS": {1, 1}, "CHOOSE": {2, -1},
	"ADDRESS": {2, 5},

	// Text
	"LEFT": {1, 2}, "RIGHT": {1, 2}, "MID": {3, 3},
	"LEN": {1, 1}, "TRIM": {1, 1}, "CLEAN": {1, 1},
	"UPPER": {1, 1}, "LOWER": {1, 1}, "PROPER": {1, 1},
	"SUBSTITUTE": {3, 4}, "REPLACE": {4, 4}, "FIND": {2, 3},
	"SEARCH": {2, 3}, "CONCATENATE": {1, -1}, "CONCAT": {1, -1},
	"TEXTJOIN": {3, -1}, "TEXT": {2, 2}, "VALUE": {1, 1},
	"REPT": {2, 2}, "EXACT": {2, 2}, "T": {1, 1},

	// Date
	"TODAY": {0, 0}, "NOW": {0, 0}, "DATE": {3, 3},
	"YEAR": {1, 1}, "MONTH": {1, 1}, "DAY": {1, 1},
	"HOUR": {1, 1}, "MINUTE": {1, 1}, "SECOND": {1, 1},
	"DATEVALUE": {1, 1}, "DATEDIF": {3, 3}, "EDATE": {2, 2},
	"EOMONTH": {2, 2}, "WEEKDAY": {1, 2}, "WEEKNUM": {1, 2},
	"NETWORKDAYS": {2, 3}, "WORKDAY": {2, 3},

	// Logical
	"IF": {2, 3}, "IFS": {2, -1}, "AND": {1, -1},
	"OR": {1, -1}, "NOT": {1, 1}, "IFERROR": {2, 2},
	"IFNA": {2, 2}, "SWITCH": {3, -1}, "TRUE": {0, 0},
	"FALSE": {0, 0},

	// Array / dynamic
	"UNIQUE": {1, 3}, "FILTER": {2, 3}, "SORT": {1, 4},
	"SORTN": {1, -1}, "SEQUENCE": {1, 4}, "ARRAYFORMULA": {1, 1},
	"FLATTEN": {1, -1}, "TRANSPOSE": {1, 1},
	"IMPORTRANGE": {2, 2},

	// Statistical
	"STDEV": {1, -1}, "VAR": {1, -1}, "CORREL": {2, 2},
	"FORECAST": {3, 3}, "TREND": {1, 4}, "GROWTH": {1, 4},
	"PERCENTRANK": {2, 3},

	// Info
	"ISBLANK": {1, 1}, "ISERROR": {1, 1}, "ISNA": {1, 1},
	"ISNUMBER": {1, 1}, "ISTEXT": {1, 1}, "TYPE": {1, 1},
	"CELL": {1, 2}, "N": {1, 1},

	// Misc
	"HYPERLINK": {1, 2}, "IMAGE": {1, 4}, "SPARKLINE": {1, 2},
	"QUERY": {2, 3}, "REGEXMATCH": {2, 2}, "REGEXEXTRACT": {2, 2},
	"REGEXREPLACE": {3, 3}, "SPLIT": {2, 4}, "JOIN": {2, -1},
}

// IsKnownFunction reports whether a function name is in the arity table.
func IsKnownFunction(name string) bool {
	_, ok := knownFunctions[name]
	return ok
}
