package irtext

import "github.com/alecthomas/participle/v2"

type programAST struct {
	Funcs []*funcDecl `@@*`
}

type funcDecl struct {
	Name    string      `"FUNC" @Ident`
	RetType string      `@Ident`
	File    string      `@Ident`
	Args    []*argDecl  `@@*`
	Blocks  []*blockDecl `@@+`
	End     string      `"ENDFUNC"`
}

type argDecl struct {
	Name string `"ARG" @Ident`
	Type string `@Ident`
}

type blockDecl struct {
	Label string     `"BLOCK" @Ident`
	Insns []*insnAlt `@@*`
	Term  *termAlt   `@@`
}

type insnAlt struct {
	Alloca *allocaDecl `  @@`
	Load   *loadDecl   `| @@`
	Store  *storeDecl  `| @@`
	Binop  *binopDecl  `| @@`
	Icmp   *icmpDecl   `| @@`
	Call   *callDecl   `| @@`
}

type termAlt struct {
	Br            *brDecl            `  @@`
	Ret           *retDecl           `| @@`
	Unreachable   *unreachableDecl   `| @@`
}

type allocaDecl struct {
	Result string `"ALLOCA" @Ident`
	Type   string `@Ident`
	Line   int    `("@" @Int)?`
}

type loadDecl struct {
	Result  string `"LOAD" @Ident`
	Address string `@Ident`
	Line    int    `("@" @Int)?`
}

type storeDecl struct {
	Value   string `"STORE" @(Ident | Int)`
	Address string `@Ident`
	Line    int    `("@" @Int)?`
}

type binopDecl struct {
	Result string `"BINOP" @Ident`
	Op     string `@Ident`
	Left   string `@(Ident | Int)`
	Right  string `@(Ident | Int)`
	Line   int    `("@" @Int)?`
}

type icmpDecl struct {
	Result string `"ICMP" @Ident`
	Pred   string `@Ident`
	Left   string `@(Ident | Int)`
	Right  string `@(Ident | Int)`
	Line   int    `("@" @Int)?`
}

type callDecl struct {
	Result string   `"CALL" @Ident`
	Callee string   `@Ident`
	Args   []string `@(Ident | Int)*`
	Line   int      `("@" @Int)?`
}

type brDecl struct {
	Cond  string `"BR" @Ident`
	True  string `@Ident`
	False string `@Ident?`
	Line  int    `("@" @Int)?`
}

type retDecl struct {
	Value string `"RET" @(Ident | Int)?`
	Line  int    `("@" @Int)?`
}

type unreachableDecl struct {
	Line int `"UNREACHABLE" ("@" @Int)?`
}

var astParser = participle.MustBuild[programAST](
	participle.Lexer(irLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)
