package pptx

import (
	"fmt"
	"strings"
)

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const pmlNamespaces = `xmlns:a="` + nsDrawing + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentation + `"`

type defaultLayout struct {
	name   string
	kind   string
	shapes []defaultShape
}

type defaultShape struct {
	name  string
	ph    string
	frame *Rect
}

var defaultLayouts = []defaultLayout{
	{
		name: "Title Slide",
		kind: "title",
		shapes: []defaultShape{
			{name: "Title 1", ph: `type="ctrTitle"`, frame: &Rect{X: 685800, Y: 2130425, Width: 7772400, Height: 1470025}},
			{name: "Subtitle 2", ph: `type="subTitle" idx="1"`, frame: &Rect{X: 1371600, Y: 3886200, Width: 6400800, Height: 1752600}},
		},
	},
	{
		name: "Title and Content",
		kind: "obj",
		shapes: []defaultShape{
			{name: "Title 1", ph: `type="title"`},
			{name: "Content Placeholder 2", ph: `idx="1"`},
		},
	},
	{
		name: "Section Header",
		kind: "secHead",
		shapes: []defaultShape{
			{name: "Title 1", ph: `type="title"`, frame: &Rect{X: 722313, Y: 4406900, Width: 7772400, Height: 1362075}},
			{name: "Text Placeholder 2", ph: `type="body" idx="1"`, frame: &Rect{X: 722313, Y: 2906713, Width: 7772400, Height: 1500187}},
		},
	},
	{
		name: "Title Only",
		kind: "titleOnly",
		shapes: []defaultShape{
			{name: "Title 1", ph: `type="title"`},
		},
	},
	{
		name: "Blank",
		kind: "blank",
	},
}

const groupShapeHeader = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

func (s defaultShape) xml(id int) string {
	spPr := `<p:spPr/>`
	if s.frame != nil {
		spPr = fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr>`,
			s.frame.X, s.frame.Y, s.frame.Width, s.frame.Height)
	}
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>`+
		`<p:nvPr><p:ph %s/></p:nvPr></p:nvSpPr>%s`+
		`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>`,
		id, s.name, s.ph, spPr)
}

func (l defaultLayout) xml() string {
	var shapes strings.Builder
	for i, s := range l.shapes {
		shapes.WriteString(s.xml(i + 2))
	}
	return xmlDecl + `<p:sldLayout ` + pmlNamespaces + ` type="` + l.kind + `" preserve="1">` +
		`<p:cSld name="` + l.name + `"><p:spTree>` + groupShapeHeader + shapes.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`
}

func defaultContentTypes() string {
	var b strings.Builder
	b.WriteString(xmlDecl)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(part, ct string) {
		fmt.Fprintf(&b, `<Override PartName="/%s" ContentType="%s"/>`, part, ct)
	}
	override("ppt/presentation.xml", "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml")
	override("ppt/slideMasters/slideMaster1.xml", "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml")
	for i := range defaultLayouts {
		override(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1), "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml")
	}
	override("ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("ppt/presProps.xml", "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml")
	override("ppt/viewProps.xml", "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml")
	override("ppt/tableStyles.xml", "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml")
	override("docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.WriteString(`</Types>`)
	return b.String()
}

func relsXML(rels ...[2]string) string {
	var b strings.Builder
	b.WriteString(xmlDecl)
	b.WriteString(`<Relationships xmlns="` + nsPackageRels + `">`)
	for i, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="%s"/>`, i+1, r[0], r[1])
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

const defaultPresentation = xmlDecl + `<p:presentation ` + pmlNamespaces + ` saveSubsetFonts="1">` +
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
	`<p:sldSz cx="9144000" cy="6858000" type="screen4x3"/>` +
	`<p:notesSz cx="6858000" cy="9144000"/>` +
	`<p:defaultTextStyle><a:lvl1pPr marL="0" algn="l" defTabSz="914400"><a:defRPr sz="1800" kern="1200">` +
	`<a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/><a:ea typeface="+mn-ea"/><a:cs typeface="+mn-cs"/>` +
	`</a:defRPr></a:lvl1pPr></p:defaultTextStyle>` +
	`</p:presentation>`

func defaultMaster() string {
	var ids strings.Builder
	for i := range defaultLayouts {
		fmt.Fprintf(&ids, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, i+1)
	}
	return xmlDecl + `<p:sldMaster ` + pmlNamespaces + `>` +
		`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + groupShapeHeader +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr><a:xfrm><a:off x="457200" y="274638"/><a:ext cx="8229600" cy="1143000"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
		`<p:txBody><a:bodyPr vert="horz" lIns="91440" tIns="45720" rIns="91440" bIns="45720" rtlCol="0" anchor="ctr"><a:normAutofit/></a:bodyPr><a:lstStyle/>` +
		`<a:p><a:r><a:rPr lang="en-US"/><a:t>Click to edit Master title style</a:t></a:r><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Text Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr><a:xfrm><a:off x="457200" y="1600200"/><a:ext cx="8229600" cy="4525963"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
		`<p:txBody><a:bodyPr vert="horz" lIns="91440" tIns="45720" rIns="91440" bIns="45720" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>` +
		`<a:p><a:pPr lvl="0"/><a:r><a:rPr lang="en-US"/><a:t>Click to edit Master text styles</a:t></a:r></a:p></p:txBody></p:sp>` +
		`</p:spTree></p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		`<p:sldLayoutIdLst>` + ids.String() + `</p:sldLayoutIdLst>` +
		`<p:txStyles>` +
		`<p:titleStyle><a:lvl1pPr algn="ctr" defTabSz="914400" rtl="0" eaLnBrk="1" latinLnBrk="0" hangingPunct="1"><a:spcBef><a:spcPct val="0"/></a:spcBef><a:buNone/>` +
		`<a:defRPr sz="4400" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mj-lt"/><a:ea typeface="+mj-ea"/><a:cs typeface="+mj-cs"/></a:defRPr></a:lvl1pPr></p:titleStyle>` +
		`<p:bodyStyle>` +
		`<a:lvl1pPr marL="342900" indent="-342900" algn="l" defTabSz="914400"><a:spcBef><a:spcPct val="20000"/></a:spcBef><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>` +
		`<a:defRPr sz="3200" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/><a:ea typeface="+mn-ea"/><a:cs typeface="+mn-cs"/></a:defRPr></a:lvl1pPr>` +
		`<a:lvl2pPr marL="742950" indent="-285750" algn="l" defTabSz="914400"><a:spcBef><a:spcPct val="20000"/></a:spcBef><a:buFont typeface="Arial"/><a:buChar char="&#8211;"/>` +
		`<a:defRPr sz="2800" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mn-lt"/><a:ea typeface="+mn-ea"/><a:cs typeface="+mn-cs"/></a:defRPr></a:lvl2pPr>` +
		`</p:bodyStyle>` +
		`<p:otherStyle><a:defPPr><a:defRPr lang="en-US"/></a:defPPr><a:lvl1pPr marL="0" algn="l" defTabSz="914400"><a:defRPr sz="1800" kern="1200"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill>` +
		`<a:latin typeface="+mn-lt"/><a:ea typeface="+mn-ea"/><a:cs typeface="+mn-cs"/></a:defRPr></a:lvl1pPr></p:otherStyle>` +
		`</p:txStyles></p:sldMaster>`
}

func schemeColor(name string, rgb string) string {
	return `<a:` + name + `><a:srgbClr val="` + rgb + `"/></a:` + name + `>`
}

func defaultTheme() string {
	fill := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line := `<a:ln w="9525" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:prstDash val="solid"/></a:ln>`
	return xmlDecl + `<a:theme xmlns:a="` + nsDrawing + `" name="Office Theme"><a:themeElements>` +
		`<a:clrScheme name="Office">` +
		`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
		schemeColor("dk2", "1F497D") + schemeColor("lt2", "EEECE1") +
		schemeColor("accent1", "4F81BD") + schemeColor("accent2", "C0504D") + schemeColor("accent3", "9BBB59") +
		schemeColor("accent4", "8064A2") + schemeColor("accent5", "4BACC6") + schemeColor("accent6", "F79646") +
		schemeColor("hlink", "0000FF") + schemeColor("folHlink", "800080") +
		`</a:clrScheme>` +
		`<a:fontScheme name="Office">` +
		`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
		`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
		`</a:fontScheme>` +
		`<a:fmtScheme name="Office">` +
		`<a:fillStyleLst>` + fill + fill + fill + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + line + line + line + `</a:lnStyleLst>` +
		`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + fill + fill + fill + `</a:bgFillStyleLst>` +
		`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
}

const (
	defaultCoreProps = xmlDecl + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>Presentation</dc:title><dc:creator>Notare</dc:creator></cp:coreProperties>`
	defaultAppProps = xmlDecl + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" ` +
		`xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><Application>Notare</Application></Properties>`
	defaultPresProps   = xmlDecl + `<p:presentationPr ` + pmlNamespaces + `/>`
	defaultViewProps   = xmlDecl + `<p:viewPr ` + pmlNamespaces + `/>`
	defaultTableStyles = xmlDecl + `<a:tblStyleLst xmlns:a="` + nsDrawing + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`
)

func defaultDeckParts() map[string][]byte {
	parts := map[string]string{
		contentTypesPart: defaultContentTypes(),
		rootRelsPart: relsXML(
			[2]string{relTypeOfficeDocument, "ppt/presentation.xml"},
			[2]string{"http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
			[2]string{nsRelationships + "/extended-properties", "docProps/app.xml"},
		),
		"docProps/core.xml":    defaultCoreProps,
		"docProps/app.xml":     defaultAppProps,
		"ppt/presentation.xml": defaultPresentation,
		"ppt/_rels/presentation.xml.rels": relsXML(
			[2]string{relTypeSlideMaster, "slideMasters/slideMaster1.xml"},
			[2]string{nsRelationships + "/theme", "theme/theme1.xml"},
			[2]string{nsRelationships + "/presProps", "presProps.xml"},
			[2]string{nsRelationships + "/viewProps", "viewProps.xml"},
			[2]string{nsRelationships + "/tableStyles", "tableStyles.xml"},
		),
		"ppt/presProps.xml":                 defaultPresProps,
		"ppt/viewProps.xml":                 defaultViewProps,
		"ppt/tableStyles.xml":               defaultTableStyles,
		"ppt/theme/theme1.xml":              defaultTheme(),
		"ppt/slideMasters/slideMaster1.xml": defaultMaster(),
	}

	masterRels := make([][2]string, 0, len(defaultLayouts)+1)
	for i, l := range defaultLayouts {
		part := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		parts[part] = l.xml()
		parts[relsPartFor(part)] = relsXML([2]string{relTypeSlideMaster, "../slideMasters/slideMaster1.xml"})
		masterRels = append(masterRels, [2]string{relTypeSlideLayout, fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i+1)})
	}
	masterRels = append(masterRels, [2]string{nsRelationships + "/theme", "../theme/theme1.xml"})
	parts[relsPartFor("ppt/slideMasters/slideMaster1.xml")] = relsXML(masterRels...)

	out := make(map[string][]byte, len(parts))
	for name, body := range parts {
		out[name] = []byte(body)
	}
	return out
}
