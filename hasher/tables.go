package hasher

// standardCodonTable maps every DNA codon (uppercase, T not U) to its
// single-letter amino acid, with stop codons mapped to '*' and
// retained as a valid residue (spec: "stop codons become '*' and are
// retained as valid residues").
var standardCodonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// dayhoffTable maps the 20 canonical amino acids to one of the 6
// Dayhoff classes and keeps '*' as '*'. Any residue not present here (ambiguous/unknown
// IUPAC codes) maps to 'X' in translateResidue.
var dayhoffTable = map[byte]byte{
	'C': 'a',
	'A': 'b', 'G': 'b', 'P': 'b', 'S': 'b', 'T': 'b',
	'D': 'c', 'E': 'c', 'N': 'c', 'Q': 'c',
	'H': 'd', 'K': 'd', 'R': 'd',
	'I': 'e', 'L': 'e', 'M': 'e', 'V': 'e',
	'F': 'f', 'W': 'f', 'Y': 'f',
	'*': '*',
}

// hpTable maps each canonical amino acid to hydrophobic ('h') or
// polar ('p'). Stop codons are treated as polar-class placeholders
// since they carry no hydrophobicity; unknown residues map to 'X'.
var hpTable = map[byte]byte{
	'A': 'h', 'F': 'h', 'I': 'h', 'L': 'h', 'M': 'h', 'V': 'h', 'W': 'h', 'Y': 'h', 'C': 'h',
	'R': 'p', 'N': 'p', 'D': 'p', 'Q': 'p', 'E': 'p', 'G': 'p', 'H': 'p', 'K': 'p', 'P': 'p', 'S': 'p', 'T': 'p',
	'*': 'p',
}

var complementBase = [256]byte{}

func init() {
	for i := range complementBase {
		complementBase[i] = byte(i)
	}
	complementBase['A'], complementBase['T'] = 'T', 'A'
	complementBase['a'], complementBase['t'] = 't', 'a'
	complementBase['C'], complementBase['G'] = 'G', 'C'
	complementBase['c'], complementBase['g'] = 'g', 'c'
}

// the 20 canonical amino acid one-letter codes plus the stop residue
// '*'. Nothing in the package reads this set at present.
var canonicalResidues = map[byte]bool{
	'A': true, 'R': true, 'N': true, 'D': true, 'C': true,
	'Q': true, 'E': true, 'G': true, 'H': true, 'I': true,
	'L': true, 'K': true, 'M': true, 'F': true, 'P': true,
	'S': true, 'T': true, 'W': true, 'Y': true, 'V': true,
	'*': true,
}
