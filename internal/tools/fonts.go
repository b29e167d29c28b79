package tools

// blockFont is the five-row font used by generate_ascii_art.
var blockFont = map[rune][]string{
	'A': {
		"  A  ",
		" A A ",
		"AAAAA",
		"A   A",
		"A   A",
	},
	'B': {
		"BBBB ",
		"B   B",
		"BBBB ",
		"B   B",
		"BBBB ",
	},
	'C': {
		" CCC ",
		"C   C",
		"C    ",
		"C   C",
		" CCC ",
	},
	'D': {
		"DDDD ",
		"D   D",
		"D   D",
		"D   D",
		"DDDD ",
	},
	'E': {
		"EEEEE",
		"E    ",
		"EEEE ",
		"E    ",
		"EEEEE",
	},
	'F': {
		"FFFFF",
		"F    ",
		"FFFF ",
		"F    ",
		"F    ",
	},
	'G': {
		" GGG ",
		"G   G",
		"G    ",
		"G  GG",
		" GGG ",
	},
	'H': {
		"H   H",
		"H   H",
		"HHHHH",
		"H   H",
		"H   H",
	},
	'I': {
		"IIIII",
		"  I  ",
		"  I  ",
		"  I  ",
		"IIIII",
	},
	'J': {
		"JJJJJ",
		"   J ",
		"   J ",
		"J  J ",
		" JJ  ",
	},
	'K': {
		"K   K",
		"K  K ",
		"KKK  ",
		"K  K ",
		"K   K",
	},
	'L': {
		"L    ",
		"L    ",
		"L    ",
		"L    ",
		"LLLLL",
	},
	'M': {
		"M   M",
		"MM MM",
		"M M M",
		"M   M",
		"M   M",
	},
	'N': {
		"N   N",
		"NN  N",
		"N N N",
		"N  NN",
		"N   N",
	},
	'O': {
		" OOO ",
		"O   O",
		"O   O",
		"O   O",
		" OOO ",
	},
	'P': {
		"PPPP ",
		"P   P",
		"PPPP ",
		"P    ",
		"P    ",
	},
	'Q': {
		" QQQ ",
		"Q   Q",
		"Q   Q",
		"Q  QQ",
		" QQQQ",
	},
	'R': {
		"RRRR ",
		"R   R",
		"RRRR ",
		"R  R ",
		"R   R",
	},
	'S': {
		" SSS ",
		"S   S",
		" SSS ",
		"    S",
		"SSSS ",
	},
	'T': {
		"TTTTT",
		"  T  ",
		"  T  ",
		"  T  ",
		"  T  ",
	},
	'U': {
		"U   U",
		"U   U",
		"U   U",
		"U   U",
		" UUU ",
	},
	'V': {
		"V   V",
		"V   V",
		"V   V",
		" V V ",
		"  V  ",
	},
	'W': {
		"W   W",
		"W   W",
		"W M W",
		"WW WW",
		"W   W",
	},
	'X': {
		"X   X",
		" X X ",
		"  X  ",
		" X X ",
		"X   X",
	},
	'Y': {
		"Y   Y",
		" Y Y ",
		"  Y  ",
		"  Y  ",
		"  Y  ",
	},
	'Z': {
		"ZZZZZ",
		"   Z ",
		"  Z  ",
		" Z   ",
		"ZZZZZ",
	},
	' ': {
		"     ",
		"     ",
		"     ",
		"     ",
		"     ",
	},
}

// slimFont is the four-row font used by generate_simple_ascii_art.
var slimFont = map[rune][]string{
	'A': {
		" /\\ ",
		"/__\\",
		"|  |",
		"|  |",
	},
	'B': {
		"___ ",
		"|_  )",
		" / / ",
		"/___|",
	},
	'C': {
		" ____",
		"|__  ",
		"   \\ ",
		"|___/",
	},
	'D': {
		"____ ",
		"|  _ \\",
		"| | | |",
		"|_| |_|",
	},
	'E': {
		" ____",
		"| ___|",
		"|___ \\",
		"|____/",
	},
	'F': {
		" ____",
		"| ___|",
		"|___ \\",
		"    /_/",
	},
	'G': {
		" ____",
		"|  _ \\",
		"| |_| |",
		"|____/",
	},
	'H': {
		"|  |",
		"|  |",
		"|__|",
		"|  |",
	},
	'I': {
		" _ ",
		"| |",
		"| |",
		"|_|",
	},
	'J': {
		"   _ ",
		"  | |",
		"  | |",
		"\\_| |",
	},
	'K': {
		"| |",
		"| |",
		"| |",
		"|_|",
	},
	'L': {
		"|  ",
		"|  ",
		"|  ",
		"|__",
	},
	'M': {
		"|\\/|",
		"|  |",
		"|  |",
		"|  |",
	},
	'N': {
		"|\\ |",
		"| \\|",
		"|  |",
		"|  |",
	},
	'O': {
		" ___ ",
		"/ _ \\",
		"\\___/",
	},
	'P': {
		" ___ ",
		"| _ \\",
		"|___/",
		"|    ",
	},
	'Q': {
		" ___ ",
		"/ _ \\",
		"\\_,_|",
	},
	'R': {
		" ___ ",
		"| _ \\",
		"| . |",
		"|_||_|",
	},
	'S': {
		" ___",
		"/ __|",
		"\\__ \\",
		"|___/",
	},
	'T': {
		"___",
		" | ",
		" | ",
		" |_|",
	},
	'U': {
		" _ _ ",
		"| | |",
		"|___|",
	},
	'V': {
		"__",
		"\\ \\",
		" > >",
		"/_/",
	},
	'W': {
		"_ _ _",
		"\\ \\ \\",
		" > > >",
		"/_/_/",
	},
	'X': {
		"\\ /",
		" X ",
		"/ \\",
	},
	'Y': {
		"\\ /",
		" Y ",
		" | ",
		" |_|",
	},
	'Z': {
		"___",
		" / /",
		"/_/ ",
		"|___|",
	},
	' ': {
		"   ",
		"   ",
		"   ",
		"   ",
	},
}
