package mask

// CompanyID formats a 14-digit CNPJ as "NN.NNN.NNN/NNNN-NN". Any other input
// is returned untouched so partially typed or foreign identifiers survive.
func CompanyID(raw string) string {
	d := Digits(raw)
	if len(d) != 14 {
		return raw
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}
