// Command ophelib-dump deserializes and prints a stored cryptographic value
// by type kind, the Go counterpart of
// original_source/bin/ophelib_dump.cpp. Supported kinds:
// I, C, P, Vf, VI, VC, VP, Mf, MI, MC, PK, SK, KP.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/mgo.v2/bson"

	"github.com/abb-iss/ophelib"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Utility to dump serialized ophelib values to the console.")
	fmt.Fprintln(os.Stderr, "Usage: ophelib-dump -type <kind> -file <path>")
	fmt.Fprintln(os.Stderr, "    Where kind is one of:")
	fmt.Fprintln(os.Stderr, "    I  -> Integer")
	fmt.Fprintln(os.Stderr, "    C  -> Ciphertext")
	fmt.Fprintln(os.Stderr, "    P  -> PackedCiphertext")
	fmt.Fprintln(os.Stderr, "    Vf -> VecFloat")
	fmt.Fprintln(os.Stderr, "    VI -> VecInteger")
	fmt.Fprintln(os.Stderr, "    VC -> VecCiphertext")
	fmt.Fprintln(os.Stderr, "    VP -> VecPackedCiphertext")
	fmt.Fprintln(os.Stderr, "    Mf -> MatFloat")
	fmt.Fprintln(os.Stderr, "    MI -> MatInteger")
	fmt.Fprintln(os.Stderr, "    MC -> MatCiphertext")
	fmt.Fprintln(os.Stderr, "    PK -> PublicKey")
	fmt.Fprintln(os.Stderr, "    SK -> PrivateKey")
	fmt.Fprintln(os.Stderr, "    KP -> KeyPair")
}

func main() {
	typeFlag := flag.String("type", "", "value kind: I, C, P, Vf, VI, VC, VP, Mf, MI, MC, PK, SK, KP")
	fileFlag := flag.String("file", "", "path to the BSON-serialized value")
	flag.Usage = usage
	flag.Parse()

	if *typeFlag == "" || *fileFlag == "" {
		usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*fileFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ophelib-dump:", err)
		os.Exit(1)
	}

	if err := dump(*typeFlag, raw); err != nil {
		fmt.Fprintln(os.Stderr, "ophelib-dump:", ophelib.Describe(err))
		os.Exit(1)
	}
}

func dump(kind string, raw []byte) error {
	switch kind {
	case "I":
		var v ophelib.Int
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Println(v.String())
	case "C":
		var v ophelib.Ciphertext
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Println(v.Data().String())
	case "P":
		var v ophelib.PackedCiphertext
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("PackedCiphertext{n=%d, bits=%d, data=%s}\n", v.NPlaintexts, v.PlaintextBits, v.Data.Data().String())
	case "Vf":
		var v ophelib.VecFloat
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Println(v)
	case "VI":
		var v ophelib.VecInteger
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		for _, x := range v {
			fmt.Println(x.String())
		}
	case "VC":
		var v ophelib.VecCiphertext
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		for _, x := range v {
			fmt.Println(x.Data().String())
		}
	case "VP":
		var v ophelib.VecPackedCiphertext
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		for _, x := range v {
			fmt.Printf("PackedCiphertext{n=%d, bits=%d, data=%s}\n", x.NPlaintexts, x.PlaintextBits, x.Data.Data().String())
		}
	case "Mf":
		var v ophelib.MatFloat
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("%dx%d\n%v\n", v.NRows, v.NCols, v.Data)
	case "MI":
		var v ophelib.MatInteger
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("%dx%d\n", v.NRows, v.NCols)
		for _, row := range v.Data {
			for _, x := range row {
				fmt.Print(x.String(), " ")
			}
			fmt.Println()
		}
	case "MC":
		var v ophelib.MatCiphertext
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("%dx%d\n", v.NRows, v.NCols)
		for _, row := range v.Data {
			for _, x := range row {
				fmt.Print(x.Data().String(), " ")
			}
			fmt.Println()
		}
	case "PK":
		var v ophelib.PublicKey
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("PublicKey{bits=%d, n=%s, g=%s}\n", v.KeySizeBits, v.N.String(), v.G.String())
	case "SK":
		var v ophelib.PrivateKey
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("PrivateKey{bits=%d, aBits=%d, p=%s, q=%s, a=%s}\n", v.KeySizeBits, v.ABits, v.P.String(), v.Q.String(), v.A.String())
	case "KP":
		var v ophelib.KeyPair
		if err := bson.Unmarshal(raw, &v); err != nil {
			return err
		}
		fmt.Printf("PublicKey{bits=%d, n=%s, g=%s}\n", v.Pub.KeySizeBits, v.Pub.N.String(), v.Pub.G.String())
		fmt.Printf("PrivateKey{bits=%d, aBits=%d, p=%s, q=%s, a=%s}\n", v.Priv.KeySizeBits, v.Priv.ABits, v.Priv.P.String(), v.Priv.Q.String(), v.Priv.A.String())
	default:
		usage()
		return fmt.Errorf("unknown type kind %q", kind)
	}
	return nil
}
