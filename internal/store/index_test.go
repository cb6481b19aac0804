package store

import "testing"

const sampleIndex = `==> numpy-1.26.0-1.egg <==
arch = 'x86_64'
platform = 'linux'
osdist = 'RedHat_7'
python = '3.10'
packages = [
  'six 1.16.0',
  'setuptools',
]
md5 = 'd41d8cd98f00b204e9800998ecf8427e'
size = 1048576

==> six-1.16.0-1.egg <==
arch = 'x86_64'
packages = []
md5 = '098f6bcd4621d373cade4e832627b4f6'
size = 2048
`

func TestParseIndexTextBasic(t *testing.T) {
	records, err := ParseIndexText(sampleIndex)
	if err != nil {
		t.Fatalf("ParseIndexText returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	numpy, ok := records["numpy-1.26.0-1.egg"]
	if !ok {
		t.Fatal("expected numpy-1.26.0-1.egg in parsed records")
	}
	if numpy.Name != "numpy" || numpy.Version != "1.26.0" || numpy.Build != 1 {
		t.Errorf("numpy record fields = %+v, want name/version/build numpy/1.26.0/1", numpy)
	}
	if numpy.Arch != "x86_64" || numpy.Platform != "linux" || numpy.OSDist != "RedHat_7" || numpy.Python != "3.10" {
		t.Errorf("numpy optional fields not parsed correctly: %+v", numpy)
	}
	if len(numpy.Packages) != 2 || numpy.Packages[0] != "six 1.16.0" || numpy.Packages[1] != "setuptools" {
		t.Errorf("numpy packages = %v, want [six 1.16.0, setuptools]", numpy.Packages)
	}
	if numpy.MD5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("numpy md5 = %q", numpy.MD5)
	}
	if numpy.Size != 1048576 {
		t.Errorf("numpy size = %d, want 1048576", numpy.Size)
	}
}

func TestParseIndexTextEmptyList(t *testing.T) {
	records, err := ParseIndexText(sampleIndex)
	if err != nil {
		t.Fatalf("ParseIndexText returned error: %v", err)
	}
	six := records["six-1.16.0-1.egg"]
	if len(six.Packages) != 0 {
		t.Errorf("expected six to have no packages, got %v", six.Packages)
	}
}

func TestParseIndexTextMultilineList(t *testing.T) {
	const data = `==> foo-1.0.0-1.egg <==
packages = [
  'bar',
  'baz 2.0',
]
md5 = 'abc'
size = 10
`
	records, err := ParseIndexText(data)
	if err != nil {
		t.Fatalf("ParseIndexText returned error: %v", err)
	}
	foo := records["foo-1.0.0-1.egg"]
	if len(foo.Packages) != 2 || foo.Packages[0] != "bar" || foo.Packages[1] != "baz 2.0" {
		t.Errorf("packages = %v, want [bar, baz 2.0]", foo.Packages)
	}
}

func TestParseIndexTextRejectsMissingMD5(t *testing.T) {
	const data = `==> foo-1.0.0-1.egg <==
size = 10
`
	_, err := ParseIndexText(data)
	if err == nil {
		t.Fatal("expected error for missing md5 key")
	}
}

func TestParseIndexTextRejectsMalformedHeader(t *testing.T) {
	const data = `not a valid header
md5 = 'abc'
`
	_, err := ParseIndexText(data)
	if err == nil {
		t.Fatal("expected error for missing section header")
	}
}

func TestParseIndexTextRejectsCodeLikeValue(t *testing.T) {
	const data = `==> foo-1.0.0-1.egg <==
md5 = __import__('os').system('echo pwned')
size = 10
`
	_, err := ParseIndexText(data)
	if err == nil {
		t.Fatal("expected error rejecting a non-literal value")
	}
}

func TestParseIndexTextNoneValue(t *testing.T) {
	const data = `==> foo-1.0.0-1.egg <==
python = None
md5 = 'abc'
size = 10
`
	records, err := ParseIndexText(data)
	if err != nil {
		t.Fatalf("ParseIndexText returned error: %v", err)
	}
	if records["foo-1.0.0-1.egg"].Python != "" {
		t.Errorf("expected None to map to empty string, got %q", records["foo-1.0.0-1.egg"].Python)
	}
}

func TestParseEggSpecDoesNotRequireMD5OrSize(t *testing.T) {
	const data = `arch = 'x86_64'
packages = ['bar']
`
	fields, err := ParseEggSpec(data)
	if err != nil {
		t.Fatalf("ParseEggSpec returned error: %v", err)
	}
	if fields["arch"] != "x86_64" {
		t.Errorf("arch = %v, want x86_64", fields["arch"])
	}
}
