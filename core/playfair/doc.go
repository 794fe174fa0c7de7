// Package playfair implements the classical Playfair digraph substitution cipher.
//
// A KeyMaterial (25-letter alphabet, replacement letter, filler letter and key)
// builds a 5x5 Matrix once per run. Raw text is normalized by a Preparer into
// digraphs that never repeat a letter, and a Codec substitutes each digraph
// under the row, column and rectangle rules.
//
// Text may be arbitrarily large. A Stream hands it out in bounded chunks and
// doubles as the Lookahead that lets the Preparer borrow one letter across a
// chunk boundary, so any chunk size yields the same digraphs as a single pass:
//
//	km, _ := playfair.NewKeyMaterial("ABCDEFGHIKLMNOPQRSTUVWXYZ", 'I', 'X', "PLAYFAIR")
//	c, _ := playfair.New(km, playfair.Encode)
//	stats, err := c.Process(ctx, playfair.NewStream(r, 64*1024), sink)
//
// Sources that cannot be peeked (network messages) use a Session, which holds
// the unpaired trailing letter until more text or the end of input arrives.
//
// The cipher offers no security against modern cryptanalysis.
package playfair
