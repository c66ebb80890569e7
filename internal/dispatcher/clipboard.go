package dispatcher

import "github.com/atotto/clipboard"

// 包级变量便于测试替换 / Package variable so tests can swap it out
var clipboardWriteAll = clipboard.WriteAll
