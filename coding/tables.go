// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Version table, from ISO/IEC 18004:2015 tables 1, 9 and E.1 by way of
// libqrencode qrspec.c.  Each entry lists the total number of
// codewords, remainder bits, the second alignment pattern centre and
// the distance between further centres, and for each level the number
// of blocks and check bytes per block.
var vtab = [MaxVersion + 1]version{
	1: {26, 0, 0, 0, [4]level{{1, 7}, {1, 10}, {1, 13}, {1, 17}}},
	2: {44, 7, 18, 0, [4]level{{1, 10}, {1, 16}, {1, 22}, {1, 28}}},
	3: {70, 7, 22, 0, [4]level{{1, 15}, {1, 26}, {2, 18}, {2, 22}}},
	4: {100, 7, 26, 0, [4]level{{1, 20}, {2, 18}, {2, 26}, {4, 16}}},
	5: {134, 7, 30, 0, [4]level{{1, 26}, {2, 24}, {4, 18}, {4, 22}}},
	6: {172, 7, 34, 0, [4]level{{2, 18}, {4, 16}, {4, 24}, {4, 28}}},
	7: {196, 0, 22, 16, [4]level{{2, 20}, {4, 18}, {6, 18}, {5, 26}}},
	8: {242, 0, 24, 18, [4]level{{2, 24}, {4, 22}, {6, 22}, {6, 26}}},
	9: {292, 0, 26, 20, [4]level{{2, 30}, {5, 22}, {8, 20}, {8, 24}}},
	10: {346, 0, 28, 22, [4]level{{4, 18}, {5, 26}, {8, 24}, {8, 28}}},
	11: {404, 0, 30, 24, [4]level{{4, 20}, {5, 30}, {8, 28}, {11, 24}}},
	12: {466, 0, 32, 26, [4]level{{4, 24}, {8, 22}, {10, 26}, {11, 28}}},
	13: {532, 0, 34, 28, [4]level{{4, 26}, {9, 22}, {12, 24}, {16, 22}}},
	14: {581, 3, 26, 20, [4]level{{4, 30}, {9, 24}, {16, 20}, {16, 24}}},
	15: {655, 3, 26, 22, [4]level{{6, 22}, {10, 24}, {12, 30}, {18, 24}}},
	16: {733, 3, 26, 24, [4]level{{6, 24}, {10, 28}, {17, 24}, {16, 30}}},
	17: {815, 3, 30, 24, [4]level{{6, 28}, {11, 28}, {16, 28}, {19, 28}}},
	18: {901, 3, 30, 26, [4]level{{6, 30}, {13, 26}, {18, 28}, {21, 28}}},
	19: {991, 3, 30, 28, [4]level{{7, 28}, {14, 26}, {21, 26}, {25, 26}}},
	20: {1085, 3, 34, 28, [4]level{{8, 28}, {16, 26}, {20, 30}, {25, 28}}},
	21: {1156, 4, 28, 22, [4]level{{8, 28}, {17, 26}, {23, 28}, {25, 30}}},
	22: {1258, 4, 26, 24, [4]level{{9, 28}, {17, 28}, {23, 30}, {34, 24}}},
	23: {1364, 4, 30, 24, [4]level{{9, 30}, {18, 28}, {25, 30}, {30, 30}}},
	24: {1474, 4, 28, 26, [4]level{{10, 30}, {20, 28}, {27, 30}, {32, 30}}},
	25: {1588, 4, 32, 26, [4]level{{12, 26}, {21, 28}, {29, 30}, {35, 30}}},
	26: {1706, 4, 30, 28, [4]level{{12, 28}, {23, 28}, {34, 28}, {37, 30}}},
	27: {1828, 4, 34, 28, [4]level{{12, 30}, {25, 28}, {34, 30}, {40, 30}}},
	28: {1921, 3, 26, 24, [4]level{{13, 30}, {26, 28}, {35, 30}, {42, 30}}},
	29: {2051, 3, 30, 24, [4]level{{14, 30}, {28, 28}, {38, 30}, {45, 30}}},
	30: {2185, 3, 26, 26, [4]level{{15, 30}, {29, 28}, {40, 30}, {48, 30}}},
	31: {2323, 3, 30, 26, [4]level{{16, 30}, {31, 28}, {43, 30}, {51, 30}}},
	32: {2465, 3, 34, 26, [4]level{{17, 30}, {33, 28}, {45, 30}, {54, 30}}},
	33: {2611, 3, 30, 28, [4]level{{18, 30}, {35, 28}, {48, 30}, {57, 30}}},
	34: {2761, 3, 34, 28, [4]level{{19, 30}, {37, 28}, {51, 30}, {60, 30}}},
	35: {2876, 0, 30, 24, [4]level{{19, 30}, {38, 28}, {53, 30}, {63, 30}}},
	36: {3034, 0, 24, 26, [4]level{{20, 30}, {40, 28}, {56, 30}, {66, 30}}},
	37: {3196, 0, 28, 26, [4]level{{21, 30}, {43, 28}, {59, 30}, {70, 30}}},
	38: {3362, 0, 32, 26, [4]level{{22, 30}, {45, 28}, {62, 30}, {74, 30}}},
	39: {3532, 0, 26, 28, [4]level{{24, 30}, {47, 28}, {65, 30}, {77, 30}}},
	40: {3706, 0, 30, 28, [4]level{{25, 30}, {49, 28}, {68, 30}, {81, 30}}},
}
